package referenceframe

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoKinematics is returned when articulated collision checking is requested without a kinematics oracle.
var ErrNoKinematics = errors.New("no kinematics oracle provided for a configuration space that is not a workspace")

// IncorrectDoFError describes a configuration whose dimension does not match the space or model it is used with.
type IncorrectDoFError struct {
	Actual   int
	Expected int
}

func (e *IncorrectDoFError) Error() string {
	return fmt.Sprintf("number of inputs does not match number of DoF, expected %d but got %d", e.Expected, e.Actual)
}

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF.
func NewIncorrectDoFError(actual, expected int) error {
	return &IncorrectDoFError{Actual: actual, Expected: expected}
}

// NewInvalidLimitError returns an error for a limit whose min exceeds its max or that contains NaN.
func NewInvalidLimitError(idx int, lim Limit) error {
	return errors.Errorf("invalid limit for dimension %d: min %v max %v", idx, lim.Min, lim.Max)
}
