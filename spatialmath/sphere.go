package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Sphere is a spherical obstacle. In planar problems its center lies in the Z = 0 plane and it acts as a circle.
type Sphere struct {
	Center r3.Vector `json:"center"`
	Radius float64   `json:"radius"`
	// Margin is a per-obstacle safety distance added to Radius whenever the sphere is checked.
	Margin float64 `json:"margin,omitempty"`
	Label  string  `json:"label,omitempty"`
}

// NewSphere instantiates a new Sphere obstacle.
func NewSphere(center r3.Vector, radius, margin float64, label string) (*Sphere, error) {
	if radius < 0 || margin < 0 {
		return nil, newBadGeometryDimensionsError(radius, margin)
	}
	return &Sphere{Center: center, Radius: radius, Margin: margin, Label: label}, nil
}

// String returns a human readable string that represents the sphere.
func (s *Sphere) String() string {
	return fmt.Sprintf("Type: Sphere | Label: %s | Center: (%.3f, %.3f, %.3f) | Radius: %.3f | Margin: %.3f",
		s.Label, s.Center.X, s.Center.Y, s.Center.Z, s.Radius, s.Margin)
}

// EffectiveRadius is the distance from the center within which anything collides, given an extra buffer
// applied on top of the sphere's own margin.
func (s *Sphere) EffectiveRadius(buffer float64) float64 {
	return s.Radius + s.Margin + buffer
}

// CollidesWithPoint returns whether pt lies within the sphere's effective radius. Touching counts.
func (s *Sphere) CollidesWithPoint(pt r3.Vector, buffer float64) bool {
	return pt.Sub(s.Center).Norm() <= s.EffectiveRadius(buffer)
}

// CollidesWithSegment returns whether any point of segment segA-segB lies within the effective radius.
func (s *Sphere) CollidesWithSegment(segA, segB r3.Vector, buffer float64) bool {
	return DistToLineSegment(segA, segB, s.Center) <= s.EffectiveRadius(buffer)
}

func newBadGeometryDimensionsError(radius, margin float64) error {
	return errors.Errorf("sphere dimensions can not be negative: radius %v, margin %v", radius, margin)
}
