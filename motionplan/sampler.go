package motionplan

import (
	"math/rand"

	"github.com/jointspace/rrtstar/referenceframe"
)

// sampler draws the configurations the tree grows towards.
type sampler struct {
	space    *referenceframe.ConfigurationSpace
	randseed *rand.Rand
}

func newSampler(space *referenceframe.ConfigurationSpace, randseed *rand.Rand) *sampler {
	return &sampler{space: space, randseed: randseed}
}

// next returns a copy of goal with probability goalBias, and a uniform sample of the space otherwise.
// Exactly one draw decides between the two, so a bias of 0 never returns the goal and a bias of 1 always does.
func (s *sampler) next(goal referenceframe.Configuration, goalBias float64) referenceframe.Configuration {
	if s.randseed.Float64() < goalBias {
		return goal.Clone()
	}
	return s.space.SampleUniform(s.randseed)
}
