package motionplan

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/jointspace/rrtstar/referenceframe"
	"github.com/jointspace/rrtstar/spatialmath"
)

// CollisionChecker answers whether configurations and the straight edges between them avoid every obstacle.
type CollisionChecker interface {
	// IsFree returns whether the robot at configuration q is clear of all obstacles.
	IsFree(q referenceframe.Configuration) bool

	// IsEdgeFree returns whether the robot moving in a straight line from a to b in configuration space stays
	// clear of all obstacles.
	IsEdgeFree(a, b referenceframe.Configuration) bool
}

// LinkCheckMode selects which parts of an articulated robot are tested against obstacles.
type LinkCheckMode string

const (
	// LinkSegments tests every straight link between consecutive link points.
	LinkSegments LinkCheckMode = "segments"
	// LinkPoints tests only the link points, skipping the fixed base.
	LinkPoints LinkCheckMode = "points"
)

// NewCollisionChecker selects the collision strategy for a planning problem. With a kinematics oracle the
// discretized kinematic checker is used. Without one the configuration must itself be a 2D or 3D workspace point.
func NewCollisionChecker(
	space *referenceframe.ConfigurationSpace,
	kin referenceframe.Kinematics,
	obstacles []*spatialmath.Sphere,
	opts *PlannerOptions,
) (CollisionChecker, error) {
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if kin != nil {
		return NewKinematicChecker(space, kin, obstacles, opts.CollisionMargin, opts.Resolution, opts.LinkCheck)
	}
	if space.Dim() != 2 && space.Dim() != 3 {
		return nil, errors.Wrapf(ErrNoKinematics, "%d-dimensional configuration space", space.Dim())
	}
	return NewCartesianChecker(space, obstacles, opts.CollisionMargin)
}

func copyObstacles(obstacles []*spatialmath.Sphere) ([]spatialmath.Sphere, error) {
	out := make([]spatialmath.Sphere, 0, len(obstacles))
	for i, o := range obstacles {
		if o == nil {
			return nil, errors.Errorf("obstacle %d is nil", i)
		}
		if o.Radius < 0 || o.Margin < 0 {
			return nil, errors.Errorf("obstacle %d has a negative radius or margin", i)
		}
		out = append(out, *o)
	}
	return out, nil
}

// cartesianChecker treats each configuration as the position of a point robot and checks edges analytically.
type cartesianChecker struct {
	space     *referenceframe.ConfigurationSpace
	obstacles []spatialmath.Sphere
	margin    float64
}

// NewCartesianChecker creates an exact collision checker for a point robot whose configuration is its 2D or 3D
// position.
func NewCartesianChecker(
	space *referenceframe.ConfigurationSpace,
	obstacles []*spatialmath.Sphere,
	margin float64,
) (CollisionChecker, error) {
	if space.Dim() != 2 && space.Dim() != 3 {
		return nil, errors.Errorf("cartesian collision checking needs a 2 or 3 dimensional space, got %d", space.Dim())
	}
	if margin < 0 {
		return nil, errors.Errorf("collision margin can't be negative, got %v", margin)
	}
	obs, err := copyObstacles(obstacles)
	if err != nil {
		return nil, err
	}
	return &cartesianChecker{space: space, obstacles: obs, margin: margin}, nil
}

func (cc *cartesianChecker) IsFree(q referenceframe.Configuration) bool {
	if cc.space.Validate(q) != nil {
		return false
	}
	if cc.space.Bounded() && !cc.space.Contains(q) {
		return false
	}
	pt, err := spatialmath.VectorFromFloats(q)
	if err != nil {
		return false
	}
	for i := range cc.obstacles {
		if cc.obstacles[i].CollidesWithPoint(pt, cc.margin) {
			return false
		}
	}
	return true
}

func (cc *cartesianChecker) IsEdgeFree(a, b referenceframe.Configuration) bool {
	if cc.space.Validate(a) != nil || cc.space.Validate(b) != nil {
		return false
	}
	ptA, err := spatialmath.VectorFromFloats(a)
	if err != nil {
		return false
	}
	ptB, err := spatialmath.VectorFromFloats(b)
	if err != nil {
		return false
	}
	for i := range cc.obstacles {
		if cc.obstacles[i].CollidesWithSegment(ptA, ptB, cc.margin) {
			return false
		}
	}
	return true
}

// kinematicChecker maps configurations through a kinematics oracle and checks edges at a fixed number of
// interpolated configurations.
type kinematicChecker struct {
	space      *referenceframe.ConfigurationSpace
	kin        referenceframe.Kinematics
	obstacles  []spatialmath.Sphere
	margin     float64
	resolution int
	mode       LinkCheckMode
}

// NewKinematicChecker creates a discretized collision checker. An edge is checked at resolution+1 evenly spaced
// configurations, endpoints included.
func NewKinematicChecker(
	space *referenceframe.ConfigurationSpace,
	kin referenceframe.Kinematics,
	obstacles []*spatialmath.Sphere,
	margin float64,
	resolution int,
	mode LinkCheckMode,
) (CollisionChecker, error) {
	if kin == nil {
		return nil, ErrNoKinematics
	}
	if kin.DoF() != space.Dim() {
		return nil, referenceframe.NewIncorrectDoFError(space.Dim(), kin.DoF())
	}
	if resolution < 1 {
		return nil, errors.Errorf("collision check resolution must be at least 1, got %d", resolution)
	}
	if margin < 0 {
		return nil, errors.Errorf("collision margin can't be negative, got %v", margin)
	}
	switch mode {
	case LinkSegments, LinkPoints:
	case "":
		mode = LinkSegments
	default:
		return nil, newUnknownOptionError("link_check", string(mode), string(LinkSegments), string(LinkPoints))
	}
	obs, err := copyObstacles(obstacles)
	if err != nil {
		return nil, err
	}
	return &kinematicChecker{
		space:      space,
		kin:        kin,
		obstacles:  obs,
		margin:     margin,
		resolution: resolution,
		mode:       mode,
	}, nil
}

func (kc *kinematicChecker) IsFree(q referenceframe.Configuration) bool {
	if kc.space.Validate(q) != nil {
		return false
	}
	if kc.space.Bounded() && !kc.space.Contains(q) {
		return false
	}
	return kc.configurationFree(q)
}

func (kc *kinematicChecker) IsEdgeFree(a, b referenceframe.Configuration) bool {
	if kc.space.Validate(a) != nil || kc.space.Validate(b) != nil {
		return false
	}
	for s := 0; s <= kc.resolution; s++ {
		q := referenceframe.InterpolateInputs(a, b, float64(s)/float64(kc.resolution))
		if !kc.configurationFree(q) {
			return false
		}
	}
	return true
}

// configurationFree checks the robot's links at q. Oracle failures count as collisions.
func (kc *kinematicChecker) configurationFree(q referenceframe.Configuration) bool {
	points, err := kc.kin.Transform(q)
	if err != nil || len(points) == 0 {
		return false
	}
	if len(points) == 1 {
		return kc.pointFree(points[0])
	}
	if kc.mode == LinkPoints {
		for _, pt := range points[1:] {
			if !kc.pointFree(pt) {
				return false
			}
		}
		return true
	}
	for i := 1; i < len(points); i++ {
		for j := range kc.obstacles {
			if kc.obstacles[j].CollidesWithSegment(points[i-1], points[i], kc.margin) {
				return false
			}
		}
	}
	return true
}

func (kc *kinematicChecker) pointFree(pt r3.Vector) bool {
	for i := range kc.obstacles {
		if kc.obstacles[i].CollidesWithPoint(pt, kc.margin) {
			return false
		}
	}
	return true
}
