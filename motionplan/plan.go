package motionplan

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jointspace/rrtstar/referenceframe"
)

// Path is a sequence of configurations from the start to the goal. Consecutive configurations are joined by
// straight, collision-free edges.
type Path []referenceframe.Configuration

// String returns a human-readable version of the Path, suitable for debugging.
func (path Path) String() string {
	steps := make([]string, 0, len(path))
	for i, q := range path {
		steps = append(steps, fmt.Sprintf("%d: %s", i, q.String()))
	}
	return strings.Join(steps, "\n")
}

// Evaluate assigns a numeric score to a path that corresponds to the cumulative distance between configurations
// in the path.
func (path Path) Evaluate(distFunc SegmentMetric) (totalCost float64) {
	for i := 1; i < len(path); i++ {
		totalCost += distFunc(path[i-1], path[i])
	}
	return totalCost
}

// Length returns the total Euclidean length of the path in configuration space.
func (path Path) Length() float64 {
	return path.Evaluate(L2Metric)
}

// CheckCollisions returns an error naming the first edge of the path that checker reports as blocked.
func (path Path) CheckCollisions(checker CollisionChecker) error {
	if len(path) == 1 && !checker.IsFree(path[0]) {
		return errors.New("the only configuration in the path is in collision")
	}
	for i := 1; i < len(path); i++ {
		if !checker.IsEdgeFree(path[i-1], path[i]) {
			return errors.Errorf("edge %d from %s to %s is in collision", i-1, path[i-1], path[i])
		}
	}
	return nil
}
