package referenceframe

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/jointspace/rrtstar/utils"
)

// Sampling range used in place of infinite limits.
const unboundedSampleRange = 999

// Limit represents the limits of motion along one dimension of a configuration space.
type Limit struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ConfigurationSpace defines the dimensionality, per-dimension bounds and the distance metric of the
// space a planner searches. The metric is always the Euclidean norm of the component-wise differences.
type ConfigurationSpace struct {
	limits []Limit
}

// NewConfigurationSpace creates a space bounded by the given per-dimension limits. Infinite limits are
// allowed and describe an unbounded dimension.
func NewConfigurationSpace(limits []Limit) (*ConfigurationSpace, error) {
	if len(limits) == 0 {
		return nil, errors.New("configuration space must have at least one dimension")
	}
	var err error
	for i, lim := range limits {
		if math.IsNaN(lim.Min) || math.IsNaN(lim.Max) || lim.Min > lim.Max {
			err = multierr.Append(err, NewInvalidLimitError(i, lim))
		}
	}
	if err != nil {
		return nil, err
	}
	cp := make([]Limit, len(limits))
	copy(cp, limits)
	return &ConfigurationSpace{limits: cp}, nil
}

// NewUnboundedSpace creates a space of the given dimension with no joint limits.
func NewUnboundedSpace(dim int) (*ConfigurationSpace, error) {
	limits := make([]Limit, dim)
	for i := range limits {
		limits[i] = Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	}
	return NewConfigurationSpace(limits)
}

// Dim returns the number of dimensions of the space.
func (cs *ConfigurationSpace) Dim() int {
	return len(cs.limits)
}

// Limits returns a copy of the per-dimension limits.
func (cs *ConfigurationSpace) Limits() []Limit {
	cp := make([]Limit, len(cs.limits))
	copy(cp, cs.limits)
	return cp
}

// Bounded returns true if every dimension has finite limits.
func (cs *ConfigurationSpace) Bounded() bool {
	for _, lim := range cs.limits {
		if math.IsInf(lim.Min, 0) || math.IsInf(lim.Max, 0) {
			return false
		}
	}
	return true
}

// Validate returns an IncorrectDoFError if q does not have the space's dimension.
func (cs *ConfigurationSpace) Validate(q Configuration) error {
	if len(q) != len(cs.limits) {
		return NewIncorrectDoFError(len(q), len(cs.limits))
	}
	for i, v := range q {
		if math.IsNaN(v) {
			return errors.Errorf("configuration component %d is NaN", i)
		}
	}
	return nil
}

// Contains returns whether q lies inside the bounds box, boundaries included.
func (cs *ConfigurationSpace) Contains(q Configuration) bool {
	if len(q) != len(cs.limits) {
		return false
	}
	for i, lim := range cs.limits {
		if q[i] < lim.Min || q[i] > lim.Max {
			return false
		}
	}
	return true
}

// SampleUniform draws a configuration with every component independently uniform over its limits.
// Infinite limits are sampled from [-999, 999] instead.
func (cs *ConfigurationSpace) SampleUniform(rSeed *rand.Rand) Configuration {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	pos := make(Configuration, 0, len(cs.limits))
	for _, lim := range cs.limits {
		l, u := lim.Min, lim.Max

		if math.IsInf(l, -1) {
			l = -unboundedSampleRange
		}
		if math.IsInf(u, 1) {
			u = unboundedSampleRange
		}

		pos = append(pos, l+rSeed.Float64()*(u-l))
	}
	return pos
}

// Distance is the metric of the space: the Euclidean norm over the component-wise differences.
func (cs *ConfigurationSpace) Distance(a, b Configuration) float64 {
	return InputsL2Distance(a, b)
}

// Clamp projects q onto the bounds box component-wise. Unbounded dimensions are left untouched.
func (cs *ConfigurationSpace) Clamp(q Configuration) Configuration {
	clamped := make(Configuration, len(q))
	for i, v := range q {
		if i < len(cs.limits) {
			v = utils.Clamp(v, cs.limits[i].Min, cs.limits[i].Max)
		}
		clamped[i] = v
	}
	return clamped
}
