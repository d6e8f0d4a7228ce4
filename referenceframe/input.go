package referenceframe

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Input is a single configuration coordinate.
//   - revolute inputs are in radians.
//   - Cartesian inputs are positions in the workspace's length unit.
type Input = float64

// Configuration is an ordered, fixed-length point in a configuration space. Configurations are treated as
// immutable once created: helpers in this package always return fresh slices.
type Configuration []Input

// NewConfiguration copies vals into a new Configuration.
func NewConfiguration(vals ...float64) Configuration {
	q := make(Configuration, len(vals))
	copy(q, vals)
	return q
}

// Clone returns a copy of the configuration.
func (q Configuration) Clone() Configuration {
	if q == nil {
		return nil
	}
	return NewConfiguration(q...)
}

// Equal returns whether the two configurations have the same dimension and identical values.
func (q Configuration) Equal(other Configuration) bool {
	return len(q) == len(other) && floats.Equal(q, other)
}

func (q Configuration) String() string {
	parts := make([]string, 0, len(q))
	for _, v := range q {
		parts = append(parts, fmt.Sprintf("%.4f", v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// InterpolateInputs returns the configuration the given fraction of the way from `from` to `to`. For example,
// by = 0.5 returns the midpoint and by = 0.25 returns one quarter of the way.
func InterpolateInputs(from, to Configuration, by float64) Configuration {
	newVals := make(Configuration, len(from))
	for i, j1 := range from {
		newVals[i] = j1 + (to[i]-j1)*by
	}
	return newVals
}

// InputsL2Distance returns the two-norm between two configurations, or +Inf if their dimensions differ.
func InputsL2Distance(from, to Configuration) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	// 2 is the L value returning a standard L2 Normalization
	return floats.Distance(from, to, 2)
}
