package config

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/jointspace/rrtstar/logging"
	"github.com/jointspace/rrtstar/motionplan"
	"github.com/jointspace/rrtstar/referenceframe"
)

func TestFormatFromPath(t *testing.T) {
	for _, tc := range []struct {
		path     string
		expected Format
	}{
		{"data/six_dof_arm.json", FormatJSON},
		{"planar.YAML", FormatYAML},
		{"/tmp/point.yml", FormatYAML},
	} {
		format, err := FormatFromPath(tc.path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, format, test.ShouldEqual, tc.expected)
	}

	_, err := FormatFromPath("scenario.toml")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "scenario.toml")
}

func TestReadPlanarArm(t *testing.T) {
	t.Setenv("RRTSTAR_SEED", "")
	scenario, err := Read("data/planar_arm.yaml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scenario.Name, test.ShouldEqual, "planar_arm")
	test.That(t, scenario.Limits, test.ShouldHaveLength, 2)
	test.That(t, scenario.Limits[0], test.ShouldResemble, referenceframe.Limit{Min: -math.Pi, Max: math.Pi})
	test.That(t, scenario.Kinematics.Type, test.ShouldEqual, PlanarKinematics)
	test.That(t, scenario.Kinematics.Links, test.ShouldResemble, []float64{1, 1})
	test.That(t, scenario.Obstacles, test.ShouldHaveLength, 3)

	problem, err := scenario.Build()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, problem.Space.Dim(), test.ShouldEqual, 2)
	test.That(t, problem.Kinematics.DoF(), test.ShouldEqual, 2)
	test.That(t, problem.Obstacles[0].Label, test.ShouldEqual, "upper")
	test.That(t, problem.Obstacles[2].Center.Y, test.ShouldAlmostEqual, -0.5)
	test.That(t, problem.Goal, test.ShouldResemble, referenceframe.Configuration{math.Pi / 2, math.Pi / 4})

	opts := problem.Options
	test.That(t, opts.StepSize, test.ShouldAlmostEqual, 0.15)
	test.That(t, opts.SearchRadius, test.ShouldAlmostEqual, 0.6)
	test.That(t, opts.GoalTolerance, test.ShouldAlmostEqual, 0.15)
	test.That(t, opts.PlanIter, test.ShouldEqual, 5000)
	test.That(t, opts.NeighborIndex, test.ShouldEqual, motionplan.RTreeIndex)
	test.That(t, opts.RandomSeed, test.ShouldEqual, 0)
	// Unset options keep their defaults.
	test.That(t, opts.GoalSelection, test.ShouldEqual, motionplan.ClosestGoal)
	test.That(t, opts.EnforceLimits, test.ShouldBeTrue)

	checker, err := problem.NewCollisionChecker()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, checker.IsFree(problem.Start), test.ShouldBeTrue)
	// Stretched along the diagonal, the arm runs through the obstacle centered at (1, 1).
	test.That(t, checker.IsFree(referenceframe.Configuration{math.Pi / 4, 0}), test.ShouldBeFalse)
}

func TestReadExpandsEnvironment(t *testing.T) {
	t.Setenv("RRTSTAR_SEED", "7")
	problem, err := ReadProblem("data/planar_arm.yaml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, problem.Options.RandomSeed, test.ShouldEqual, 7)
}

func TestReadSixDofArm(t *testing.T) {
	problem, err := ReadProblem("data/six_dof_arm.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, problem.Name, test.ShouldEqual, "six_dof_arm")
	test.That(t, problem.Space.Dim(), test.ShouldEqual, 6)
	test.That(t, problem.Space.Limits()[1].Max, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, problem.Kinematics.DoF(), test.ShouldEqual, 6)
	test.That(t, problem.Obstacles, test.ShouldHaveLength, 2)
	test.That(t, problem.Obstacles[1].Center.Z, test.ShouldAlmostEqual, 0.6)
	test.That(t, problem.Obstacles[1].Label, test.ShouldEqual, "obstacle_1")

	opts := problem.Options
	test.That(t, opts.EdgeCost, test.ShouldEqual, motionplan.SquaredCost)
	test.That(t, opts.LinkCheck, test.ShouldEqual, motionplan.LinkPoints)
	test.That(t, opts.Resolution, test.ShouldEqual, 3)
	test.That(t, opts.CollisionMargin, test.ShouldAlmostEqual, 0.05)
	test.That(t, opts.RandomSeed, test.ShouldEqual, 42)

	pts, err := problem.Kinematics.Transform(problem.Start)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pts, test.ShouldHaveLength, 7)
	test.That(t, pts[6].X, test.ShouldAlmostEqual, 0.6)

	checker, err := problem.NewCollisionChecker()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, checker.IsFree(problem.Start), test.ShouldBeTrue)
}

func TestReadPointRobot(t *testing.T) {
	problem, err := ReadProblem("data/point_robot.yml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, problem.Kinematics, test.ShouldBeNil)
	test.That(t, problem.Obstacles, test.ShouldHaveLength, 5)
	test.That(t, problem.Options.SearchRadius, test.ShouldEqual, 0.)
	test.That(t, problem.Options.StopOnGoal, test.ShouldBeTrue)

	checker, err := problem.NewCollisionChecker()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, checker.IsFree(problem.Start), test.ShouldBeTrue)
	test.That(t, checker.IsFree(problem.Goal), test.ShouldBeTrue)
	test.That(t, checker.IsFree(referenceframe.Configuration{30, 30}), test.ShouldBeFalse)
	test.That(t, checker.IsFree(referenceframe.Configuration{-1, 50}), test.ShouldBeFalse)
	test.That(t, checker.IsEdgeFree(problem.Start, problem.Goal), test.ShouldBeFalse)
}

func TestInvalidScenario(t *testing.T) {
	scenario, err := Read("data/invalid.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scenario.Name, test.ShouldEqual, "invalid")

	_, err = scenario.Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "start: number of inputs does not match number of DoF")
	test.That(t, err.Error(), test.ShouldContainSubstring, "goal configuration is required")
	test.That(t, err.Error(), test.ShouldContainSubstring, "obstacle 0 center must have 2 or 3 coordinates")
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown kinematics type "scara"`)
}

func TestFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := FromReader(strings.NewReader(`{"dim": 2, "strat": [0, 0]}`), FormatJSON)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Scenario from json")

	_, err = FromReader(strings.NewReader("dim: 2\nstrat: [0, 0]\n"), FormatYAML)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Scenario from yaml")

	_, err = FromReader(strings.NewReader("{}"), Format("toml"))
	test.That(t, err, test.ShouldNotBeNil)

	// the planner block is free-form on decode but checked when built
	scenario, err := FromReader(strings.NewReader("dim: 2\nstart: [0, 0]\ngoal: [1, 1]\nplanner:\n  stepsize: 0.2\n"), FormatYAML)
	test.That(t, err, test.ShouldBeNil)
	_, err = scenario.Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid planner options")
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown field "stepsize"`)
}

func TestBuildErrors(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:   "base",
			Limits: []referenceframe.Limit{{Min: -1, Max: 1}, {Min: -1, Max: 1}},
			Start:  []float64{0, 0},
			Goal:   []float64{0.5, 0.5},
		}
	}

	t.Run("no dimensions", func(t *testing.T) {
		s := base()
		s.Limits = nil
		_, err := s.Build()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "either limits or a positive dim")
	})

	t.Run("dim disagrees with limits", func(t *testing.T) {
		s := base()
		s.Dim = 3
		_, err := s.Build()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "dim 3 does not match the 2 limits")
	})

	t.Run("inverted limit", func(t *testing.T) {
		s := base()
		s.Limits[1] = referenceframe.Limit{Min: 1, Max: -1}
		_, err := s.Build()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "dimension 1")
	})

	t.Run("kinematics dof mismatch", func(t *testing.T) {
		s := base()
		s.Kinematics = &KinematicsConfig{Type: PlanarKinematics, Links: []float64{1, 1, 1}}
		_, err := s.Build()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "planar kinematics")
	})

	t.Run("negative obstacle radius", func(t *testing.T) {
		s := base()
		s.Obstacles = []ObstacleConfig{{Center: []float64{0, 0}, Radius: -1}}
		_, err := s.Build()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "obstacle 0")
	})

	t.Run("bad planner options", func(t *testing.T) {
		s := base()
		s.Planner = map[string]interface{}{"step_size": -1, "goal_bias": 2}
		_, err := s.Build()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "step_size")
		test.That(t, err.Error(), test.ShouldContainSubstring, "goal_bias")
	})

	t.Run("unbounded space", func(t *testing.T) {
		s := base()
		s.Limits = nil
		s.Dim = 2
		problem, err := s.Build()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, problem.Space.Bounded(), test.ShouldBeFalse)
	})

	t.Run("build copies configurations", func(t *testing.T) {
		s := base()
		problem, err := s.Build()
		test.That(t, err, test.ShouldBeNil)
		s.Start[0] = 1
		test.That(t, problem.Start[0], test.ShouldEqual, 0.)
	})
}

func TestProblemPlans(t *testing.T) {
	scenario := &Scenario{
		Name:      "around",
		Limits:    []referenceframe.Limit{{Min: 0, Max: 10}, {Min: 0, Max: 10}},
		Start:     []float64{1, 1},
		Goal:      []float64{9, 9},
		Obstacles: []ObstacleConfig{{Center: []float64{5, 5}, Radius: 1}},
		Planner: map[string]interface{}{
			"step_size":      0.5,
			"search_radius":  1.5,
			"goal_tolerance": 0.5,
			"plan_iter":      3000,
			"rseed":          1,
		},
	}
	problem, err := scenario.Build()
	test.That(t, err, test.ShouldBeNil)

	mp, err := problem.NewPlanner(logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	result, err := mp.Plan(context.Background(), problem.Start, problem.Goal)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.State, test.ShouldEqual, motionplan.GoalReached)
	test.That(t, result.Path[0], test.ShouldResemble, problem.Start)
	test.That(t, result.Path[len(result.Path)-1], test.ShouldResemble, problem.Goal)

	checker, err := problem.NewCollisionChecker()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Path.CheckCollisions(checker), test.ShouldBeNil)
}

func TestNoKinematicsForHighDimensions(t *testing.T) {
	scenario := &Scenario{Dim: 4, Start: []float64{0, 0, 0, 0}, Goal: []float64{1, 1, 1, 1}}
	problem, err := scenario.Build()
	test.That(t, err, test.ShouldBeNil)
	_, err = problem.NewPlanner(nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no kinematics oracle")
}
