// Package config reads planning scenarios from JSON or YAML files and builds the objects a planner runs on.
package config

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/jointspace/rrtstar/logging"
	"github.com/jointspace/rrtstar/motionplan"
	"github.com/jointspace/rrtstar/referenceframe"
	"github.com/jointspace/rrtstar/spatialmath"
)

// KinematicsType names one of the built-in kinematics oracles.
type KinematicsType string

// The built-in kinematics oracles.
const (
	PointKinematics  KinematicsType = "point"
	PlanarKinematics KinematicsType = "planar"
	DHKinematics     KinematicsType = "dh"
)

// Scenario describes one planning problem: the configuration space, the robot, the obstacles it must avoid, the
// start and goal configurations and the planner settings.
type Scenario struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Limits bounds every dimension of the configuration space. When empty, Dim unbounded dimensions are used.
	Limits []referenceframe.Limit `json:"limits,omitempty" yaml:"limits,omitempty"`
	Dim    int                    `json:"dim,omitempty" yaml:"dim,omitempty"`

	Start []float64 `json:"start" yaml:"start"`
	Goal  []float64 `json:"goal" yaml:"goal"`

	Obstacles  []ObstacleConfig  `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	Kinematics *KinematicsConfig `json:"kinematics,omitempty" yaml:"kinematics,omitempty"`

	// Planner holds overrides of the default planner options, keyed by their json names.
	Planner map[string]interface{} `json:"planner,omitempty" yaml:"planner,omitempty"`
}

// ObstacleConfig is a circular (2D) or spherical (3D) obstacle.
type ObstacleConfig struct {
	Center []float64 `json:"center" yaml:"center"`
	Radius float64   `json:"radius" yaml:"radius"`
	Margin float64   `json:"margin,omitempty" yaml:"margin,omitempty"`
	Label  string    `json:"label,omitempty" yaml:"label,omitempty"`
}

// KinematicsConfig selects and parameterizes a kinematics oracle.
type KinematicsConfig struct {
	Type  KinematicsType           `json:"type" yaml:"type"`
	Links []float64                `json:"links,omitempty" yaml:"links,omitempty"`
	DH    []referenceframe.DHParam `json:"dh,omitempty" yaml:"dh,omitempty"`
}

// Problem is a fully built scenario.
type Problem struct {
	Name       string
	Space      *referenceframe.ConfigurationSpace
	Kinematics referenceframe.Kinematics
	Obstacles  []*spatialmath.Sphere
	Options    *motionplan.PlannerOptions
	Start      referenceframe.Configuration
	Goal       referenceframe.Configuration
}

// Validate returns every structural problem found in the scenario combined into one error.
func (s *Scenario) Validate() error {
	var errs error
	dim := s.dim()
	if len(s.Limits) == 0 && s.Dim < 1 {
		errs = multierr.Append(errs, errors.New("scenario needs either limits or a positive dim"))
	}
	if len(s.Limits) > 0 && s.Dim > 0 && s.Dim != len(s.Limits) {
		errs = multierr.Append(errs, errors.Errorf("dim %d does not match the %d limits given", s.Dim, len(s.Limits)))
	}
	if len(s.Start) == 0 {
		errs = multierr.Append(errs, errors.New("start configuration is required"))
	} else if dim > 0 && len(s.Start) != dim {
		errs = multierr.Append(errs, errors.Wrap(referenceframe.NewIncorrectDoFError(len(s.Start), dim), "start"))
	}
	if len(s.Goal) == 0 {
		errs = multierr.Append(errs, errors.New("goal configuration is required"))
	} else if dim > 0 && len(s.Goal) != dim {
		errs = multierr.Append(errs, errors.Wrap(referenceframe.NewIncorrectDoFError(len(s.Goal), dim), "goal"))
	}
	for i, o := range s.Obstacles {
		if len(o.Center) != 2 && len(o.Center) != 3 {
			errs = multierr.Append(errs, errors.Errorf("obstacle %d center must have 2 or 3 coordinates, got %d", i, len(o.Center)))
		}
	}
	if s.Kinematics != nil {
		switch s.Kinematics.Type {
		case PointKinematics, PlanarKinematics, DHKinematics:
		default:
			errs = multierr.Append(errs, errors.Errorf("unknown kinematics type %q, must be one of [%s]",
				s.Kinematics.Type, strings.Join([]string{
					string(PointKinematics), string(PlanarKinematics), string(DHKinematics),
				}, ", ")))
		}
	}
	return errs
}

func (s *Scenario) dim() int {
	if len(s.Limits) > 0 {
		return len(s.Limits)
	}
	return s.Dim
}

// Build validates the scenario and constructs its configuration space, kinematics, obstacles and options.
func (s *Scenario) Build() (*Problem, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scenario %q", s.Name)
	}

	var space *referenceframe.ConfigurationSpace
	var err error
	if len(s.Limits) > 0 {
		space, err = referenceframe.NewConfigurationSpace(s.Limits)
	} else {
		space, err = referenceframe.NewUnboundedSpace(s.Dim)
	}
	if err != nil {
		return nil, err
	}

	kin, err := s.buildKinematics(space.Dim())
	if err != nil {
		return nil, err
	}

	obstacles := make([]*spatialmath.Sphere, 0, len(s.Obstacles))
	for i, o := range s.Obstacles {
		center := r3.Vector{X: o.Center[0], Y: o.Center[1]}
		if len(o.Center) == 3 {
			center.Z = o.Center[2]
		}
		label := o.Label
		if label == "" {
			label = fmt.Sprintf("obstacle_%d", i)
		}
		sphere, err := spatialmath.NewSphere(center, o.Radius, o.Margin, label)
		if err != nil {
			return nil, errors.Wrapf(err, "obstacle %d", i)
		}
		obstacles = append(obstacles, sphere)
	}

	opts, err := motionplan.NewPlannerOptionsFromExtra(s.Planner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid planner options")
	}

	return &Problem{
		Name:       s.Name,
		Space:      space,
		Kinematics: kin,
		Obstacles:  obstacles,
		Options:    opts,
		Start:      referenceframe.Configuration(s.Start).Clone(),
		Goal:       referenceframe.Configuration(s.Goal).Clone(),
	}, nil
}

func (s *Scenario) buildKinematics(dim int) (referenceframe.Kinematics, error) {
	if s.Kinematics == nil {
		return nil, nil
	}
	name := s.Name
	if name == "" {
		name = string(s.Kinematics.Type)
	}
	var kin referenceframe.Kinematics
	var err error
	switch s.Kinematics.Type {
	case PointKinematics:
		kin, err = referenceframe.NewPointRobot(name, dim)
	case PlanarKinematics:
		kin, err = referenceframe.NewPlanarArm(name, s.Kinematics.Links...)
	case DHKinematics:
		kin, err = referenceframe.NewDHChain(name, s.Kinematics.DH)
	default:
		return nil, errors.Errorf("unknown kinematics type %q", s.Kinematics.Type)
	}
	if err != nil {
		return nil, err
	}
	if kin.DoF() != dim {
		return nil, errors.Wrapf(referenceframe.NewIncorrectDoFError(dim, kin.DoF()), "%s kinematics", s.Kinematics.Type)
	}
	return kin, nil
}

// NewCollisionChecker builds the collision checker for the problem.
func (p *Problem) NewCollisionChecker() (motionplan.CollisionChecker, error) {
	return motionplan.NewCollisionChecker(p.Space, p.Kinematics, p.Obstacles, p.Options)
}

// NewPlanner builds the collision checker and an RRT* planner for the problem.
func (p *Problem) NewPlanner(logger logging.Logger, options ...motionplan.PlannerOption) (*motionplan.RRTStarPlanner, error) {
	checker, err := p.NewCollisionChecker()
	if err != nil {
		return nil, err
	}
	return motionplan.NewRRTStarPlanner(p.Space, checker, p.Options, logger, options...)
}
