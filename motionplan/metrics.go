package motionplan

import (
	"github.com/jointspace/rrtstar/referenceframe"
	"github.com/jointspace/rrtstar/utils"
)

// SegmentMetric is a function which scores the straight edge between two configurations. Lower is better.
type SegmentMetric func(from, to referenceframe.Configuration) float64

// EdgeCostType names the SegmentMetric used as the cost of one tree edge.
type EdgeCostType string

const (
	// LinearCost charges the Euclidean length of an edge.
	LinearCost EdgeCostType = "linear"
	// SquaredCost charges the squared Euclidean length of an edge.
	SquaredCost EdgeCostType = "squared"
)

// L2Metric is the Euclidean distance between two configurations.
func L2Metric(from, to referenceframe.Configuration) float64 {
	return referenceframe.InputsL2Distance(from, to)
}

// SquaredL2Metric is the squared Euclidean distance between two configurations.
func SquaredL2Metric(from, to referenceframe.Configuration) float64 {
	return utils.Square(referenceframe.InputsL2Distance(from, to))
}

func (e EdgeCostType) metric() (SegmentMetric, error) {
	switch e {
	case LinearCost:
		return L2Metric, nil
	case SquaredCost:
		return SquaredL2Metric, nil
	default:
		return nil, newUnknownOptionError("edge_cost", string(e), string(LinearCost), string(SquaredCost))
	}
}
