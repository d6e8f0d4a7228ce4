// package main runs the RRT* planner on a scenario file
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/jointspace/rrtstar/config"
	"github.com/jointspace/rrtstar/logging"
	"github.com/jointspace/rrtstar/motionplan"
)

const (
	flagSeed       = "seed"
	flagIterations = "iterations"
	flagTimeout    = "timeout"
	flagVerbose    = "v"
	flagLogLevel   = "log-level"
	flagLoop       = "loop"
	flagJSON       = "json"
	flagIndex      = "neighbor-index"
	flagCascade    = "cascade-costs"
	flagStopOnGoal = "stop-on-goal"
)

func main() {
	if err := newApp(logging.NewLogger("cmd-plan")).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// planArgs are the command line overrides applied on top of a scenario.
type planArgs struct {
	scenarioPath string
	seed         int
	iterations   int
	timeout      time.Duration
	loop         int
	asJSON       bool
	index        string
	cascade      bool
	stopOnGoal   bool
}

func newApp(logger logging.Logger) *cli.App {
	return &cli.App{
		Name:      "cmd-plan",
		Usage:     "plan a collision-free path for the scenario in `FILE` with RRT*",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagSeed,
				Value: -1,
				Usage: "random seed, overriding the scenario's rseed when non-negative",
			},
			&cli.IntFlag{
				Name:  flagIterations,
				Usage: "iteration budget, overriding the scenario's plan_iter when positive",
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Usage: "stop growing the tree after this long",
			},
			&cli.BoolFlag{
				Name:  flagVerbose,
				Usage: "trace the planner: log its debug output whatever the log level",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "log level (debug, info, warn or error)",
			},
			&cli.IntFlag{
				Name:  flagLoop,
				Value: 1,
				Usage: "plan this many times, incrementing the seed each run",
			},
			&cli.BoolFlag{
				Name:  flagJSON,
				Usage: "print a json summary of every run",
			},
			&cli.StringFlag{
				Name:  flagIndex,
				Usage: "nearest-neighbor index to use (linear or rtree)",
			},
			&cli.BoolFlag{
				Name:  flagCascade,
				Usage: "propagate rewired costs to every descendant",
			},
			&cli.BoolFlag{
				Name:  flagStopOnGoal,
				Usage: "stop at the first node that reaches the goal",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("need a scenario file")
			}
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			ctx := c.Context
			if c.Bool(flagVerbose) {
				ctx = logging.EnableDebugMode(ctx, "")
			}
			return runPlans(ctx, logger, c.App.Writer, planArgs{
				scenarioPath: c.Args().First(),
				seed:         c.Int(flagSeed),
				iterations:   c.Int(flagIterations),
				timeout:      c.Duration(flagTimeout),
				loop:         c.Int(flagLoop),
				asJSON:       c.Bool(flagJSON),
				index:        c.String(flagIndex),
				cascade:      c.Bool(flagCascade),
				stopOnGoal:   c.Bool(flagStopOnGoal),
			})
		},
	}
}

// runSummary is the json form of one planning run.
type runSummary struct {
	Scenario     string           `json:"scenario"`
	Seed         int              `json:"seed"`
	State        string           `json:"state"`
	Nodes        int              `json:"nodes"`
	Cost         *float64         `json:"cost,omitempty"`
	GoalDistance float64          `json:"goal_distance"`
	Waypoints    int              `json:"waypoints"`
	Length       float64          `json:"length"`
	Duration     string           `json:"duration"`
	Stats        motionplan.Stats `json:"stats"`
}

func runPlans(ctx context.Context, logger logging.Logger, w io.Writer, args planArgs) error {
	logger.Infof("reading scenario from %s", args.scenarioPath)
	problem, err := config.ReadProblem(args.scenarioPath)
	if err != nil {
		return err
	}

	opts := problem.Options
	if args.seed >= 0 {
		opts.RandomSeed = args.seed
	}
	if args.iterations > 0 {
		opts.PlanIter = args.iterations
	}
	if args.timeout > 0 {
		opts.Timeout = args.timeout.Seconds()
	}
	if args.index != "" {
		opts.NeighborIndex = motionplan.NeighborIndexType(args.index)
	}
	if args.cascade {
		opts.CascadeCosts = true
	}
	if args.stopOnGoal {
		opts.StopOnGoal = true
	}
	if args.loop < 1 {
		args.loop = 1
	}

	logger.Infof("scenario %s: %d obstacles, %d-dimensional space, start %s, goal %s",
		problem.Name, len(problem.Obstacles), problem.Space.Dim(), problem.Start, problem.Goal)

	checker, err := problem.NewCollisionChecker()
	if err != nil {
		return err
	}

	baseSeed := opts.RandomSeed
	seconds := make(stats.Float64Data, 0, args.loop)
	costs := make(stats.Float64Data, 0, args.loop)
	for i := 0; i < args.loop; i++ {
		opts.RandomSeed = baseSeed + i
		mp, err := motionplan.NewRRTStarPlanner(problem.Space, checker, opts, logger.Sublogger("rrtstar"))
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := mp.Plan(ctx, problem.Start, problem.Goal)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)
		seconds = append(seconds, elapsed.Seconds())

		summary := runSummary{
			Scenario:     problem.Name,
			Seed:         opts.RandomSeed,
			State:        result.State.String(),
			Nodes:        result.NodeCount,
			GoalDistance: result.GoalDistance,
			Waypoints:    len(result.Path),
			Length:       result.Path.Length(),
			Duration:     elapsed.String(),
			Stats:        result.Stats,
		}
		if result.Err() == nil {
			costs = append(costs, result.Cost)
			cost := result.Cost
			summary.Cost = &cost
			if err := result.Path.CheckCollisions(checker); err != nil {
				logger.Warnw("path crosses an obstacle", "error", err)
			}
		}

		if args.asJSON {
			out, err := json.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(out))
			continue
		}

		if result.Err() != nil {
			logger.Infof("seed %d: %v after %d iterations, closest goal distance %.4f",
				opts.RandomSeed, result.Err(), result.Stats.Iterations, result.GoalDistance)
			continue
		}
		logger.Infof("seed %d: planning took %v, %d nodes, cost %.4f", opts.RandomSeed, elapsed, result.NodeCount, result.Cost)
		for idx, q := range result.Path {
			fmt.Fprintf(w, "step %d\t%s\n", idx, q)
		}
		fmt.Fprintf(w, "total L2: %0.4f\n", result.Path.Length())
	}

	if args.loop > 1 {
		logLoopSummary(logger, seconds, costs)
	}
	return nil
}

func logLoopSummary(logger logging.Logger, seconds, costs stats.Float64Data) {
	median, err := seconds.Median()
	if err != nil {
		return
	}
	logger.Infof("goal reached in %d of %d runs, median planning time %v",
		len(costs), len(seconds), time.Duration(median*float64(time.Second)))
	if len(costs) == 0 {
		return
	}
	mean, err := costs.Mean()
	if err != nil {
		return
	}
	best, err := costs.Min()
	if err != nil {
		return
	}
	logger.Infow("path cost over successful runs", "mean", mean, "min", best)
}
