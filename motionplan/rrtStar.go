package motionplan

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/jointspace/rrtstar/logging"
	"github.com/jointspace/rrtstar/referenceframe"
)

// PlanState is the state of a single planning run.
type PlanState int

// The states of a planning run. A run starts Running, moves to GoalReached as soon as any node lies within
// the goal tolerance and keeps optimizing, and becomes Exhausted when its iteration budget is consumed. The
// terminal state reported in a Result is GoalReached or Failed.
const (
	Running PlanState = iota
	GoalReached
	Exhausted
	Failed
)

func (s PlanState) String() string {
	switch s {
	case Running:
		return "running"
	case GoalReached:
		return "goal_reached"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// EventKind identifies what happened in a PlanEvent.
type EventKind int

// The kinds of events reported to a PlanObserver.
const (
	// EdgeAccepted reports a new node and the parent it was attached to.
	EdgeAccepted EventKind = iota
	// EdgeRejected reports a steered configuration whose edge from its nearest node was blocked.
	EdgeRejected
	// EdgeDegenerate reports a sample that coincided with its nearest node.
	EdgeDegenerate
	// NodeRewired reports an existing node attached to a new, cheaper parent.
	NodeRewired
	// GoalImproved reports a node closer to the goal than any before it, within tolerance.
	GoalImproved
	// StateChanged reports a transition of the run's PlanState.
	StateChanged
)

func (k EventKind) String() string {
	switch k {
	case EdgeAccepted:
		return "accepted"
	case EdgeRejected:
		return "rejected"
	case EdgeDegenerate:
		return "degenerate"
	case NodeRewired:
		return "rewired"
	case GoalImproved:
		return "goal_improved"
	case StateChanged:
		return "state_changed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// PlanEvent is one ordered event of a planning run. Fields that do not apply to the event's kind are left at
// their zero value, except Node and Parent which are -1.
type PlanEvent struct {
	Kind      EventKind
	Iteration int
	Node      int
	Parent    int
	Q         referenceframe.Configuration
	Cost      float64
	Distance  float64
	State     PlanState
}

// PlanObserver receives every event of a planning run, in order, on the planning goroutine.
type PlanObserver func(PlanEvent)

// Stats counts what happened during a planning run.
type Stats struct {
	Iterations      int `json:"iterations"`
	Accepted        int `json:"accepted"`
	Rejected        int `json:"rejected"`
	Degenerate      int `json:"degenerate"`
	Rewires         int `json:"rewires"`
	CollisionChecks int `json:"collision_checks"`
}

// Result is the outcome of a planning run.
type Result struct {
	// State is GoalReached or Failed.
	State PlanState
	// Path runs from the start to the exact goal. It is nil when the run failed.
	Path Path
	// NodeCount is the final number of nodes in the tree.
	NodeCount int
	// Cost is the accumulated cost of the selected goal node, or +Inf when the run failed.
	Cost float64
	// GoalDistance is the distance from the selected goal node to the goal. When the run failed, it is the
	// closest any node came to the goal.
	GoalDistance float64
	Tree         *Tree
	Stats        Stats
}

// Err returns ErrPlanningFailed when no node reached the goal, and nil otherwise.
func (r *Result) Err() error {
	if r.State != GoalReached {
		return ErrPlanningFailed
	}
	return nil
}

// PlannerOption customizes an RRTStarPlanner.
type PlannerOption func(*RRTStarPlanner)

// WithRandSource makes the planner draw samples from randseed instead of a source seeded with
// PlannerOptions.RandomSeed.
func WithRandSource(randseed *rand.Rand) PlannerOption {
	return func(mp *RRTStarPlanner) {
		mp.randseed = randseed
	}
}

// WithObserver registers an observer receiving every event of each planning run.
func WithObserver(observer PlanObserver) PlannerOption {
	return func(mp *RRTStarPlanner) {
		mp.observer = observer
	}
}

// RRTStarPlanner grows a single tree from the start, choosing the cheapest parent for each new node within the
// search radius and rewiring neighbors through it when that lowers their cost.
type RRTStarPlanner struct {
	space    *referenceframe.ConfigurationSpace
	checker  CollisionChecker
	opts     *PlannerOptions
	metric   SegmentMetric
	logger   logging.Logger
	randseed *rand.Rand
	observer PlanObserver
}

// NewRRTStarPlanner creates an RRTStarPlanner. A nil opts uses NewBasicPlannerOptions and a nil logger discards
// all logs.
func NewRRTStarPlanner(
	space *referenceframe.ConfigurationSpace,
	checker CollisionChecker,
	opts *PlannerOptions,
	logger logging.Logger,
	options ...PlannerOption,
) (*RRTStarPlanner, error) {
	if space == nil {
		return nil, errors.New("planner needs a configuration space")
	}
	if checker == nil {
		return nil, errors.New("planner needs a collision checker")
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid planner options")
	}
	metric, err := opts.EdgeCost.metric()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("rrtstar")
	}
	mp := &RRTStarPlanner{
		space:   space,
		checker: checker,
		opts:    opts,
		metric:  metric,
		logger:  logger,
	}
	for _, o := range options {
		o(mp)
	}
	if mp.randseed == nil {
		//nolint:gosec
		mp.randseed = rand.New(rand.NewSource(int64(opts.RandomSeed)))
	}
	return mp, nil
}

// Options returns the options the planner runs with.
func (mp *RRTStarPlanner) Options() *PlannerOptions {
	return mp.opts
}

// Plan searches for a path from start to goal. Running out of iterations without reaching the goal is not an
// error: the returned Result has State Failed and Result.Err reports it. An error is returned for invalid
// inputs, and with the partial result when ctx is done before the budget is consumed.
func (mp *RRTStarPlanner) Plan(ctx context.Context, start, goal referenceframe.Configuration) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "rrtStarPlan")
	defer span.End()

	if err := mp.space.Validate(start); err != nil {
		return nil, errors.Wrap(err, "invalid start configuration")
	}
	if err := mp.space.Validate(goal); err != nil {
		return nil, errors.Wrap(err, "invalid goal configuration")
	}
	if !mp.checker.IsFree(start) {
		mp.logger.CWarnf(ctx, "start configuration %s is in collision or out of bounds", start)
	}
	if mp.space.Bounded() && !mp.space.Contains(goal) {
		mp.logger.CWarnf(ctx, "goal configuration %s is outside the configuration space limits", goal)
	}

	run := newPlanRun(mp, start, goal)
	mp.logger.CDebugw(ctx, "starting RRT*",
		"dof", mp.space.Dim(),
		"plan_iter", mp.opts.PlanIter,
		"step_size", mp.opts.StepSize,
		"search_radius", mp.opts.SearchRadius,
		"goal_bias", mp.opts.GoalBias,
		"goal_tolerance", mp.opts.GoalTolerance,
		"edge_cost", mp.opts.EdgeCost,
		"neighbor_index", mp.opts.NeighborIndex,
	)
	err := run.iterate(ctx)
	result := run.result()
	span.AddAttributes(
		trace.StringAttribute("state", result.State.String()),
		trace.Int64Attribute("nodes", int64(result.NodeCount)),
	)
	if err != nil {
		mp.logger.CInfof(ctx, "RRT* interrupted after %d iterations: %v", result.Stats.Iterations, err)
		return result, err
	}
	mp.logger.CInfow(ctx, "RRT* finished",
		"state", result.State.String(),
		"nodes", result.NodeCount,
		"cost", result.Cost,
		"goal_distance", result.GoalDistance,
		"iterations", result.Stats.Iterations,
		"rewires", result.Stats.Rewires,
	)
	return result, nil
}

// planRun holds the state of one invocation of Plan.
type planRun struct {
	mp      *RRTStarPlanner
	goal    referenceframe.Configuration
	tree    *Tree
	index   neighborIndex
	sampler *sampler
	state   PlanState
	stats   Stats

	// nodes within the goal tolerance, in insertion order
	goalNodes []*Node
	// closest goal-adjacent node so far
	bestNode *Node
	bestDist float64
	// closest any node has come to the goal
	closestDist float64
}

func newPlanRun(mp *RRTStarPlanner, start, goal referenceframe.Configuration) *planRun {
	// option validation guarantees a known index type
	index, err := newNeighborIndex(mp.opts.NeighborIndex, mp.space.Dim(), mp.opts.numThreads())
	if err != nil {
		index = &linearIndex{nCPU: mp.opts.numThreads()}
	}
	run := &planRun{
		mp:          mp,
		goal:        goal.Clone(),
		tree:        newTree(start, mp.metric, mp.opts.CascadeCosts),
		index:       index,
		sampler:     newSampler(mp.space, mp.randseed),
		state:       Running,
		bestDist:    math.Inf(1),
		closestDist: math.Inf(1),
	}
	run.index.add(run.tree.Root())
	return run
}

func (run *planRun) emit(event PlanEvent) {
	if run.mp.observer != nil {
		run.mp.observer(event)
	}
}

func (run *planRun) setState(iter int, state PlanState) {
	run.state = state
	run.emit(PlanEvent{Kind: StateChanged, Iteration: iter, Node: -1, Parent: -1, State: state})
}

func (run *planRun) edgeFree(a, b referenceframe.Configuration) bool {
	run.stats.CollisionChecks++
	return run.mp.checker.IsEdgeFree(a, b)
}

// checkGoal records n if it lies within the goal tolerance.
func (run *planRun) checkGoal(iter int, n *Node) {
	dist := run.mp.space.Distance(n.q, run.goal)
	if dist < run.closestDist {
		run.closestDist = dist
	}
	if dist > run.mp.opts.GoalTolerance {
		return
	}
	run.goalNodes = append(run.goalNodes, n)
	if dist < run.bestDist {
		run.bestDist = dist
		run.bestNode = n
		run.emit(PlanEvent{
			Kind: GoalImproved, Iteration: iter, Node: n.index, Parent: n.parent, Cost: n.cost, Distance: dist, State: run.state,
		})
		if run.state == Running {
			run.mp.logger.Debugf("goal reached at iteration %d with %d nodes", iter, run.tree.Size())
			run.setState(iter, GoalReached)
		}
	}
}

// iterate runs the RRT* loop until the iteration budget or the timeout is consumed, or ctx is done.
func (run *planRun) iterate(ctx context.Context) error {
	opts := run.mp.opts
	run.setState(0, Running)
	run.checkGoal(0, run.tree.Root())

	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.timeoutDuration())
	}
	// Number of iterations after which a log will be printed
	logIteration := opts.logIteration()

	for i := 1; i <= opts.PlanIter; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if opts.StopOnGoal && run.state == GoalReached {
			run.mp.logger.CDebugf(ctx, "RRT* stopping after %d iterations with the goal reached", i-1)
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			run.mp.logger.CDebugf(ctx, "RRT* timed out after %d iterations", i-1)
			break
		}

		run.stats.Iterations++
		run.extend(ctx, i)

		// log status of planner to periodically inform user
		if logIteration > 0 && i%logIteration == 0 {
			run.mp.logger.CDebugf(ctx, "RRT* progress: %d%%\tnodes: %d\tclosest goal distance: %.3f",
				100*i/opts.PlanIter, run.tree.Size(), run.closestDist)
		}
	}
	prev := run.state
	last := run.stats.Iterations
	run.setState(last, Exhausted)
	if prev == GoalReached {
		run.setState(last, GoalReached)
	} else {
		run.setState(last, Failed)
	}
	return nil
}

// extend performs one iteration: sample, steer from the nearest node, attach the new node to its cheapest
// neighbor and rewire the neighborhood through it.
func (run *planRun) extend(ctx context.Context, iter int) {
	opts := run.mp.opts
	qRand := run.sampler.next(run.goal, opts.GoalBias)
	near := run.index.nearest(ctx, qRand)
	if near == nil {
		return
	}

	qNew, err := steer(near.q, qRand, opts.StepSize)
	if err == nil && opts.EnforceLimits && run.mp.space.Bounded() {
		qNew = run.mp.space.Clamp(qNew)
		if qNew.Equal(near.q) {
			err = errDegenerateEdge
		}
	}
	if err != nil {
		run.stats.Degenerate++
		run.emit(PlanEvent{Kind: EdgeDegenerate, Iteration: iter, Node: -1, Parent: near.index, State: run.state})
		return
	}

	if !run.edgeFree(near.q, qNew) {
		run.stats.Rejected++
		run.emit(PlanEvent{Kind: EdgeRejected, Iteration: iter, Node: -1, Parent: near.index, Q: qNew, State: run.state})
		return
	}

	// choose the cheapest collision-free parent in the neighborhood
	parent := near
	minCost := near.cost + run.mp.metric(near.q, qNew)
	var neighbors []*Node
	if opts.SearchRadius > 0 {
		neighbors = run.index.withinRadius(ctx, qNew, opts.SearchRadius)
	}
	for _, n := range neighbors {
		if n == near {
			continue
		}
		cost := n.cost + run.mp.metric(n.q, qNew)
		if cost < minCost && run.edgeFree(n.q, qNew) {
			parent = n
			minCost = cost
		}
	}

	// add new node to tree as a child of the minimum cost neighbor node
	newNode := run.tree.insert(qNew, parent, minCost)
	run.index.add(newNode)
	run.stats.Accepted++
	run.emit(PlanEvent{
		Kind: EdgeAccepted, Iteration: iter, Node: newNode.index, Parent: parent.index, Q: qNew.Clone(), Cost: minCost, State: run.state,
	})

	// rewire the tree
	for _, n := range neighbors {
		// dont need to try to rewire the parent, so skip it
		if n == parent {
			continue
		}
		// check to see if a shortcut is possible, and rewire the node if it is
		cost := newNode.cost + run.mp.metric(newNode.q, n.q)
		if cost < n.cost && run.edgeFree(newNode.q, n.q) {
			if err := run.tree.reparent(n, newNode, cost); err != nil {
				run.mp.logger.CDebugf(ctx, "skipping rewire: %v", err)
				continue
			}
			run.stats.Rewires++
			run.emit(PlanEvent{
				Kind: NodeRewired, Iteration: iter, Node: n.index, Parent: newNode.index, Cost: cost, State: run.state,
			})
		}
	}

	run.checkGoal(iter, newNode)
}

// selectGoalNode picks the node the path is extracted from, according to the goal selection policy.
func (run *planRun) selectGoalNode() *Node {
	if run.bestNode == nil {
		return nil
	}
	if run.mp.opts.GoalSelection != CheapestGoal {
		return run.bestNode
	}
	cheapest := run.goalNodes[0]
	for _, n := range run.goalNodes[1:] {
		if n.cost < cheapest.cost {
			cheapest = n
		}
	}
	return cheapest
}

func (run *planRun) result() *Result {
	result := &Result{
		State:        Failed,
		NodeCount:    run.tree.Size(),
		Cost:         math.Inf(1),
		GoalDistance: run.closestDist,
		Tree:         run.tree,
		Stats:        run.stats,
	}
	selected := run.selectGoalNode()
	if selected == nil {
		return result
	}
	path := run.tree.pathToRoot(selected)
	if !path[len(path)-1].Equal(run.goal) {
		if !run.mp.checker.IsEdgeFree(selected.q, run.goal) {
			run.mp.logger.Warnf("final edge from node %d to the goal is in collision", selected.index)
		}
		path = append(path, run.goal.Clone())
	}
	result.State = GoalReached
	result.Path = path
	result.Cost = selected.cost
	result.GoalDistance = run.mp.space.Distance(selected.q, run.goal)
	return result
}
