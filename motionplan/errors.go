package motionplan

import (
	"github.com/pkg/errors"

	"github.com/jointspace/rrtstar/referenceframe"
)

var (
	// ErrPlanningFailed is returned by Result.Err when the iteration budget ran out without any node reaching
	// the goal tolerance.
	ErrPlanningFailed = errors.New("motion planner failed to find path")

	// ErrNoKinematics is returned at setup when a configuration space is neither Cartesian nor accompanied by a
	// kinematics oracle, so edges cannot be checked for collisions.
	ErrNoKinematics = referenceframe.ErrNoKinematics

	// errDegenerateEdge is returned by steer when the sample coincides with its nearest node. The planner skips the
	// iteration.
	errDegenerateEdge = errors.New("cannot steer along a zero length edge")
)

func newUnknownOptionError(name, value string, allowed ...string) error {
	return errors.Errorf("unknown %s %q, must be one of %v", name, value, allowed)
}
