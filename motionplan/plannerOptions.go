package motionplan

import (
	"bytes"
	"encoding/json"
	"math"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/jointspace/rrtstar/utils"
)

// default values for planning options.
const (
	// Maximum distance in configuration space covered by one tree extension.
	defaultStepSize = 0.1

	// Radius of the neighborhood considered when choosing parents and rewiring.
	defaultSearchRadius = 0.5

	// Probability of sampling the goal instead of a uniform configuration.
	defaultGoalBias = 0.1

	// Distance to the goal below which a node counts as having reached it.
	defaultGoalTolerance = 0.1

	// Number of planner iterations before giving up.
	defaultPlanIter = 3000

	// Number of subdivisions of an edge checked against obstacles by the kinematic checker.
	defaultResolution = 5

	// Percentage interval of max iterations after which to print debug logs.
	defaultLoggingInterval = 0.1

	// random seed.
	defaultRandomSeed = 0
)

var defaultNumThreads = utils.MinInt(runtime.NumCPU()/2, 10)

func init() {
	defaultNumThreads = utils.MaxInt(utils.GetenvInt("MP_NUM_THREADS", defaultNumThreads), 1)
}

// GoalSelection is the policy used to pick which goal-adjacent node the path is extracted from.
type GoalSelection string

const (
	// ClosestGoal picks the node with the lowest distance to the goal.
	ClosestGoal GoalSelection = "closest"
	// CheapestGoal picks the node with the lowest accumulated cost among the nodes within tolerance.
	CheapestGoal GoalSelection = "cheapest"
)

// NeighborIndexType selects the data structure answering nearest and radius queries.
type NeighborIndexType string

const (
	// LinearIndex scans every node, splitting the scan across threads for large trees.
	LinearIndex NeighborIndexType = "linear"
	// RTreeIndex keeps node configurations in an R-tree.
	RTreeIndex NeighborIndexType = "rtree"
)

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		StepSize:        defaultStepSize,
		SearchRadius:    defaultSearchRadius,
		GoalBias:        defaultGoalBias,
		GoalTolerance:   defaultGoalTolerance,
		PlanIter:        defaultPlanIter,
		EdgeCost:        LinearCost,
		Resolution:      defaultResolution,
		LinkCheck:       LinkSegments,
		GoalSelection:   ClosestGoal,
		NeighborIndex:   LinearIndex,
		RandomSeed:      defaultRandomSeed,
		EnforceLimits:   true,
		LoggingInterval: defaultLoggingInterval,
		NumThreads:      defaultNumThreads,
	}
}

// PlannerOptions are a set of options to be passed to a planner which will specify how to solve a motion planning problem.
type PlannerOptions struct {
	// Maximum distance covered by one extension of the tree
	StepSize float64 `json:"step_size"`

	// Radius of the neighborhood used to choose parents and rewire. Zero or less disables both, giving plain RRT
	SearchRadius float64 `json:"search_radius"`

	// Probability in [0, 1] of sampling the goal itself
	GoalBias float64 `json:"goal_bias"`

	// How close to get to the goal
	GoalTolerance float64 `json:"goal_tolerance"`

	// Number of planner iterations before giving up
	PlanIter int `json:"plan_iter"`

	// Cost of a single edge, either the linear or the squared displacement. Fixed for a run
	EdgeCost EdgeCostType `json:"edge_cost"`

	// Number of subdivisions of each edge checked for collisions by the kinematic checker
	Resolution int `json:"resolution"`

	// Which parts of the robot the kinematic checker tests at each subdivision
	LinkCheck LinkCheckMode `json:"link_check"`

	// Policy used to pick the goal node once the iterations are exhausted
	GoalSelection GoalSelection `json:"goal_selection"`

	// Data structure answering nearest and radius queries
	NeighborIndex NeighborIndexType `json:"neighbor_index"`

	// The random seed used by the sampler. This parameter guarantees deterministic
	// outputs for a given set of identical inputs
	RandomSeed int `json:"rseed"`

	// Propagate cost changes to the whole subtree of a rewired node
	CascadeCosts bool `json:"cascade_costs"`

	// Stop growing the tree as soon as a node reaches the goal instead of spending the whole budget
	StopOnGoal bool `json:"stop_on_goal"`

	// Clamp every steered configuration into the configuration space limits
	EnforceLimits bool `json:"enforce_limits"`

	// Number of seconds before terminating planner. Zero means no limit
	Timeout float64 `json:"timeout"`

	// Percentage interval of max iterations after which to print debug logs
	LoggingInterval float64 `json:"logging_interval"`

	// Number of goroutines used by large nearest neighbor scans
	NumThreads int `json:"num_threads"`

	// Clearance added to every obstacle radius when checking collisions
	CollisionMargin float64 `json:"collision_margin"`
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra, which is usually decoded from a scenario file.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()

	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(jsonString))
	dec.DisallowUnknownFields()
	if err := dec.Decode(opt); err != nil {
		return nil, errors.Wrap(err, "failed to decode planner options")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every problem found in the options combined into one error.
func (p *PlannerOptions) Validate() error {
	var errs error
	if !(p.StepSize > 0) || math.IsInf(p.StepSize, 1) {
		errs = multierr.Append(errs, errors.Errorf("step_size must be positive and finite, got %v", p.StepSize))
	}
	if math.IsNaN(p.SearchRadius) {
		errs = multierr.Append(errs, errors.New("search_radius can't be NaN"))
	}
	if !(p.GoalBias >= 0 && p.GoalBias <= 1) {
		errs = multierr.Append(errs, errors.Errorf("goal_bias must be within [0, 1], got %v", p.GoalBias))
	}
	if !(p.GoalTolerance >= 0) {
		errs = multierr.Append(errs, errors.Errorf("goal_tolerance can't be negative, got %v", p.GoalTolerance))
	}
	if p.PlanIter < 0 {
		errs = multierr.Append(errs, errors.Errorf("plan_iter can't be negative, got %d", p.PlanIter))
	}
	if _, err := p.EdgeCost.metric(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if p.Resolution < 1 {
		errs = multierr.Append(errs, errors.Errorf("resolution must be at least 1, got %d", p.Resolution))
	}
	switch p.LinkCheck {
	case LinkSegments, LinkPoints:
	default:
		errs = multierr.Append(errs, newUnknownOptionError("link_check", string(p.LinkCheck),
			string(LinkSegments), string(LinkPoints)))
	}
	switch p.GoalSelection {
	case ClosestGoal, CheapestGoal:
	default:
		errs = multierr.Append(errs, newUnknownOptionError("goal_selection", string(p.GoalSelection),
			string(ClosestGoal), string(CheapestGoal)))
	}
	switch p.NeighborIndex {
	case LinearIndex, RTreeIndex:
	default:
		errs = multierr.Append(errs, newUnknownOptionError("neighbor_index", string(p.NeighborIndex),
			string(LinearIndex), string(RTreeIndex)))
	}
	if !(p.Timeout >= 0) {
		errs = multierr.Append(errs, errors.Errorf("timeout can't be negative, got %v", p.Timeout))
	}
	if !(p.LoggingInterval >= 0 && p.LoggingInterval <= 1) {
		errs = multierr.Append(errs, errors.Errorf("logging_interval must be within [0, 1], got %v", p.LoggingInterval))
	}
	if p.NumThreads < 0 {
		errs = multierr.Append(errs, errors.Errorf("num_threads can't be negative, got %d", p.NumThreads))
	}
	if !(p.CollisionMargin >= 0) {
		errs = multierr.Append(errs, errors.Errorf("collision_margin can't be negative, got %v", p.CollisionMargin))
	}
	return errs
}

func (p *PlannerOptions) timeoutDuration() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

// numThreads returns the configured thread count, or the default when unset.
func (p *PlannerOptions) numThreads() int {
	if p.NumThreads > 0 {
		return p.NumThreads
	}
	return defaultNumThreads
}

// logIteration returns how many iterations pass between two progress logs, or 0 to disable them.
func (p *PlannerOptions) logIteration() int {
	return int(float64(p.PlanIter) * p.LoggingInterval)
}
