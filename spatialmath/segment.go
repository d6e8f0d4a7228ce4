package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ClosestPointSegmentPoint takes a line segment defined by two points and a third point, and returns the point
// on the segment closest to the third. A degenerate segment (segA == segB) collapses to segA.
func ClosestPointSegmentPoint(segA, segB, pt r3.Vector) r3.Vector {
	ab := segB.Sub(segA)
	denom := ab.Norm2()
	if denom == 0 {
		return segA
	}
	// Project pt onto ab, clamping the parameter so the result stays on the segment
	t := pt.Sub(segA).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return segA.Add(ab.Mul(t))
}

// DistToLineSegment returns the Euclidean distance from pt to the closest point of segment segA-segB.
func DistToLineSegment(segA, segB, pt r3.Vector) float64 {
	return pt.Sub(ClosestPointSegmentPoint(segA, segB, pt)).Norm()
}

// VectorFromFloats builds a workspace point from two or three coordinates. Two coordinates describe a point
// in the Z = 0 plane.
func VectorFromFloats(vals []float64) (r3.Vector, error) {
	switch len(vals) {
	case 2:
		return r3.Vector{X: vals[0], Y: vals[1]}, nil
	case 3:
		return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
	default:
		return r3.Vector{}, errors.Errorf("workspace points must have 2 or 3 coordinates, got %d", len(vals))
	}
}
