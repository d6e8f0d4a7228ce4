package motionplan

import (
	"testing"

	"go.viam.com/test"

	"github.com/jointspace/rrtstar/referenceframe"
)

func TestEdgeCostMetrics(t *testing.T) {
	from := referenceframe.Configuration{0, 0}
	to := referenceframe.Configuration{3, 4}

	linear, err := LinearCost.metric()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, linear(from, to), test.ShouldAlmostEqual, 5)
	test.That(t, linear(from, from), test.ShouldAlmostEqual, 0)

	squared, err := SquaredCost.metric()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, squared(from, to), test.ShouldAlmostEqual, 25)

	// squared cost favours many short edges over one long one
	mid := referenceframe.Configuration{1.5, 2}
	test.That(t, squared(from, mid)+squared(mid, to), test.ShouldBeLessThan, squared(from, to))
	test.That(t, linear(from, mid)+linear(mid, to), test.ShouldAlmostEqual, linear(from, to))

	_, err = EdgeCostType("manhattan").metric()
	test.That(t, err, test.ShouldNotBeNil)
}
