package motionplan

import (
	"github.com/jointspace/rrtstar/referenceframe"
)

// steer moves from towards to by at most step. When to is within step it is returned as is. A zero length
// displacement returns from and errDegenerateEdge.
func steer(from, to referenceframe.Configuration, step float64) (referenceframe.Configuration, error) {
	dist := referenceframe.InputsL2Distance(from, to)
	if dist == 0 {
		return from, errDegenerateEdge
	}
	if dist <= step {
		return to.Clone(), nil
	}
	return referenceframe.InterpolateInputs(from, to, step/dist), nil
}
