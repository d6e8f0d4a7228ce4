package motionplan

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/jointspace/rrtstar/referenceframe"
	"github.com/jointspace/rrtstar/spatialmath"
)

func newTestSpace(t *testing.T, limits ...referenceframe.Limit) *referenceframe.ConfigurationSpace {
	t.Helper()
	space, err := referenceframe.NewConfigurationSpace(limits)
	test.That(t, err, test.ShouldBeNil)
	return space
}

func newTestSphere(t *testing.T, x, y, radius float64) *spatialmath.Sphere {
	t.Helper()
	s, err := spatialmath.NewSphere(r3.Vector{X: x, Y: y}, radius, 0, "")
	test.That(t, err, test.ShouldBeNil)
	return s
}

func TestCartesianChecker(t *testing.T) {
	space := newTestSpace(t, referenceframe.Limit{Min: -1, Max: 11}, referenceframe.Limit{Min: -5, Max: 5})
	obstacles := []*spatialmath.Sphere{newTestSphere(t, 5, 0, 2)}

	checker, err := NewCartesianChecker(space, obstacles, 0)
	test.That(t, err, test.ShouldBeNil)

	t.Run("points", func(t *testing.T) {
		test.That(t, checker.IsFree(referenceframe.Configuration{0, 0}), test.ShouldBeTrue)
		test.That(t, checker.IsFree(referenceframe.Configuration{5, 0}), test.ShouldBeFalse)
		// touching the boundary is a collision
		test.That(t, checker.IsFree(referenceframe.Configuration{5, 2}), test.ShouldBeFalse)
		test.That(t, checker.IsFree(referenceframe.Configuration{5, 2.001}), test.ShouldBeTrue)
		// out of bounds and wrong dimensionality are never free
		test.That(t, checker.IsFree(referenceframe.Configuration{12, 0}), test.ShouldBeFalse)
		test.That(t, checker.IsFree(referenceframe.Configuration{0, 0, 0}), test.ShouldBeFalse)
	})

	t.Run("edges", func(t *testing.T) {
		test.That(t, checker.IsEdgeFree(referenceframe.Configuration{0, 0}, referenceframe.Configuration{10, 0}), test.ShouldBeFalse)
		test.That(t, checker.IsEdgeFree(referenceframe.Configuration{0, 2}, referenceframe.Configuration{10, 2}), test.ShouldBeFalse)
		test.That(t, checker.IsEdgeFree(referenceframe.Configuration{0, 3}, referenceframe.Configuration{10, 3}), test.ShouldBeTrue)
		// both endpoints free, the obstacle sits between them
		test.That(t, checker.IsEdgeFree(referenceframe.Configuration{2, -3}, referenceframe.Configuration{8, 3}), test.ShouldBeFalse)
		// degenerate edges reduce to a point test
		test.That(t, checker.IsEdgeFree(referenceframe.Configuration{1, 1}, referenceframe.Configuration{1, 1}), test.ShouldBeTrue)
		test.That(t, checker.IsEdgeFree(referenceframe.Configuration{0}, referenceframe.Configuration{1, 1}), test.ShouldBeFalse)
	})

	t.Run("margin", func(t *testing.T) {
		padded, err := NewCartesianChecker(space, obstacles, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, padded.IsEdgeFree(referenceframe.Configuration{0, 3}, referenceframe.Configuration{10, 3}), test.ShouldBeFalse)
		test.That(t, padded.IsEdgeFree(referenceframe.Configuration{0, 3.1}, referenceframe.Configuration{10, 3.1}), test.ShouldBeTrue)

		withOwnMargin, err := spatialmath.NewSphere(r3.Vector{X: 5}, 2, 1, "padded")
		test.That(t, err, test.ShouldBeNil)
		own, err := NewCartesianChecker(space, []*spatialmath.Sphere{withOwnMargin}, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, own.IsFree(referenceframe.Configuration{5, 3}), test.ShouldBeFalse)
	})

	t.Run("obstacles are copied", func(t *testing.T) {
		obs := newTestSphere(t, 0, 0, 1)
		cc, err := NewCartesianChecker(space, []*spatialmath.Sphere{obs}, 0)
		test.That(t, err, test.ShouldBeNil)
		obs.Radius = 0
		test.That(t, cc.IsFree(referenceframe.Configuration{0.5, 0}), test.ShouldBeFalse)
	})

	t.Run("bad setup", func(t *testing.T) {
		_, err := NewCartesianChecker(space, obstacles, -1)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewCartesianChecker(space, []*spatialmath.Sphere{nil}, 0)
		test.That(t, err, test.ShouldNotBeNil)
		big, err := referenceframe.NewUnboundedSpace(4)
		test.That(t, err, test.ShouldBeNil)
		_, err = NewCartesianChecker(big, obstacles, 0)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestCartesianChecker3D(t *testing.T) {
	space, err := referenceframe.NewUnboundedSpace(3)
	test.That(t, err, test.ShouldBeNil)
	obs, err := spatialmath.NewSphere(r3.Vector{X: 1, Y: 1, Z: 1}, 0.5, 0, "")
	test.That(t, err, test.ShouldBeNil)
	checker, err := NewCartesianChecker(space, []*spatialmath.Sphere{obs}, 0)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, checker.IsEdgeFree(referenceframe.Configuration{0, 0, 0}, referenceframe.Configuration{2, 2, 2}), test.ShouldBeFalse)
	test.That(t, checker.IsEdgeFree(referenceframe.Configuration{0, 0, 0}, referenceframe.Configuration{2, 2, 0}), test.ShouldBeTrue)
	// unbounded spaces accept any point outside the obstacles
	test.That(t, checker.IsFree(referenceframe.Configuration{1e6, -1e6, 0}), test.ShouldBeTrue)
}

func TestKinematicChecker(t *testing.T) {
	space := newTestSpace(t,
		referenceframe.Limit{Min: -math.Pi, Max: math.Pi},
		referenceframe.Limit{Min: -math.Pi, Max: math.Pi},
	)
	arm, err := referenceframe.NewPlanarArm("arm", 1, 1)
	test.That(t, err, test.ShouldBeNil)

	t.Run("segments", func(t *testing.T) {
		checker, err := NewKinematicChecker(space, arm, []*spatialmath.Sphere{newTestSphere(t, 2, 0, 0.1)}, 0, 4, LinkSegments)
		test.That(t, err, test.ShouldBeNil)

		// stretched along X the end effector sits inside the obstacle
		test.That(t, checker.IsFree(referenceframe.Configuration{0, 0}), test.ShouldBeFalse)
		test.That(t, checker.IsFree(referenceframe.Configuration{0, math.Pi / 2}), test.ShouldBeTrue)
		test.That(t, checker.IsFree(referenceframe.Configuration{4, 0}), test.ShouldBeFalse)

		// sweeping from up to down passes through the stretched configuration at the midpoint sample
		up := referenceframe.Configuration{math.Pi / 2, 0}
		down := referenceframe.Configuration{-math.Pi / 2, 0}
		test.That(t, checker.IsEdgeFree(up, down), test.ShouldBeFalse)
		test.That(t, checker.IsEdgeFree(up, referenceframe.Configuration{math.Pi, 0}), test.ShouldBeTrue)
	})

	t.Run("points skip the base", func(t *testing.T) {
		// the first link passes through this obstacle but no link point is near it
		obstacles := []*spatialmath.Sphere{newTestSphere(t, 0.5, 0, 0.1)}
		segments, err := NewKinematicChecker(space, arm, obstacles, 0, 5, LinkSegments)
		test.That(t, err, test.ShouldBeNil)
		points, err := NewKinematicChecker(space, arm, obstacles, 0, 5, LinkPoints)
		test.That(t, err, test.ShouldBeNil)

		q := referenceframe.Configuration{0, 0}
		test.That(t, segments.IsFree(q), test.ShouldBeFalse)
		test.That(t, points.IsFree(q), test.ShouldBeTrue)

		atBase := []*spatialmath.Sphere{newTestSphere(t, 0, 0, 0.1)}
		points, err = NewKinematicChecker(space, arm, atBase, 0, 5, LinkPoints)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, points.IsFree(q), test.ShouldBeTrue)
	})

	t.Run("bad setup", func(t *testing.T) {
		_, err := NewKinematicChecker(space, nil, nil, 0, 5, LinkSegments)
		test.That(t, errors.Is(err, ErrNoKinematics), test.ShouldBeTrue)

		threeLinks, err := referenceframe.NewPlanarArm("arm3", 1, 1, 1)
		test.That(t, err, test.ShouldBeNil)
		_, err = NewKinematicChecker(space, threeLinks, nil, 0, 5, LinkSegments)
		var dofErr *referenceframe.IncorrectDoFError
		test.That(t, errors.As(err, &dofErr), test.ShouldBeTrue)

		_, err = NewKinematicChecker(space, arm, nil, 0, 0, LinkSegments)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewKinematicChecker(space, arm, nil, 0, 5, "capsules")
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestNewCollisionChecker(t *testing.T) {
	opts := NewBasicPlannerOptions()

	planar := newTestSpace(t, referenceframe.Limit{Min: 0, Max: 1}, referenceframe.Limit{Min: 0, Max: 1})
	checker, err := NewCollisionChecker(planar, nil, nil, opts)
	test.That(t, err, test.ShouldBeNil)
	_, ok := checker.(*cartesianChecker)
	test.That(t, ok, test.ShouldBeTrue)

	arm, err := referenceframe.NewPlanarArm("arm", 0.5, 0.5)
	test.That(t, err, test.ShouldBeNil)
	checker, err = NewCollisionChecker(planar, arm, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	kc, ok := checker.(*kinematicChecker)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, kc.resolution, test.ShouldEqual, defaultResolution)
	test.That(t, kc.mode, test.ShouldEqual, LinkSegments)

	sixDof, err := referenceframe.NewUnboundedSpace(6)
	test.That(t, err, test.ShouldBeNil)
	_, err = NewCollisionChecker(sixDof, nil, nil, opts)
	test.That(t, errors.Is(err, ErrNoKinematics), test.ShouldBeTrue)
}
