package referenceframe

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kinematics maps a configuration to the ordered workspace points of a robot's links. The first point is the
// fixed base; each consecutive pair of points is one straight link.
type Kinematics interface {
	// Name returns the name of the model.
	Name() string

	// DoF returns the number of configuration inputs the model expects.
	DoF() int

	// Transform returns the ordered link points for the configuration q.
	Transform(q Configuration) ([]r3.Vector, error)
}

// pointRobot is a Cartesian robot whose configuration is its own position.
type pointRobot struct {
	name string
	dim  int
}

// NewPointRobot creates the identity kinematics for a point robot moving in a 2D or 3D workspace.
func NewPointRobot(name string, dim int) (Kinematics, error) {
	if dim != 2 && dim != 3 {
		return nil, errors.Errorf("point robot must have 2 or 3 dimensions, got %d", dim)
	}
	return &pointRobot{name: name, dim: dim}, nil
}

func (pr *pointRobot) Name() string {
	return pr.name
}

func (pr *pointRobot) DoF() int {
	return pr.dim
}

func (pr *pointRobot) Transform(q Configuration) ([]r3.Vector, error) {
	if len(q) != pr.dim {
		return nil, NewIncorrectDoFError(len(q), pr.dim)
	}
	pt := r3.Vector{X: q[0], Y: q[1]}
	if pr.dim == 3 {
		pt.Z = q[2]
	}
	return []r3.Vector{pt}, nil
}

// planarArm is a serial chain of revolute joints rotating about Z, with its base at the origin.
type planarArm struct {
	name  string
	links []float64
}

// NewPlanarArm creates a planar serial arm with one revolute joint per link. Joint i's angle is measured
// relative to link i-1.
func NewPlanarArm(name string, linkLengths ...float64) (Kinematics, error) {
	if len(linkLengths) == 0 {
		return nil, errors.New("planar arm needs at least one link")
	}
	for i, l := range linkLengths {
		if l <= 0 || math.IsNaN(l) {
			return nil, errors.Errorf("link %d has non-positive length %v", i, l)
		}
	}
	links := make([]float64, len(linkLengths))
	copy(links, linkLengths)
	return &planarArm{name: name, links: links}, nil
}

func (pa *planarArm) Name() string {
	return pa.name
}

func (pa *planarArm) DoF() int {
	return len(pa.links)
}

// Transform returns the base, every elbow and the end effector.
func (pa *planarArm) Transform(q Configuration) ([]r3.Vector, error) {
	if len(q) != len(pa.links) {
		return nil, NewIncorrectDoFError(len(q), len(pa.links))
	}
	points := make([]r3.Vector, 0, len(pa.links)+1)
	cur := r3.Vector{}
	points = append(points, cur)
	theta := 0.
	for i, l := range pa.links {
		theta += q[i]
		cur = r3.Vector{X: cur.X + l*math.Cos(theta), Y: cur.Y + l*math.Sin(theta)}
		points = append(points, cur)
	}
	return points, nil
}

// DHParam holds the standard Denavit-Hartenberg parameters of one revolute joint.
type DHParam struct {
	A           float64 `json:"a" yaml:"a"`
	Alpha       float64 `json:"alpha" yaml:"alpha"`
	D           float64 `json:"d" yaml:"d"`
	ThetaOffset float64 `json:"theta_offset" yaml:"theta_offset"`
}

// transform returns the 4x4 homogeneous transform Rz(theta) Tz(d) Tx(a) Rx(alpha) for the joint angle q.
func (p DHParam) transform(q float64) *mat.Dense {
	theta := q + p.ThetaOffset
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(p.Alpha), math.Sin(p.Alpha)
	return mat.NewDense(4, 4, []float64{
		ct, -st * ca, st * sa, p.A * ct,
		st, ct * ca, -ct * sa, p.A * st,
		0, sa, ca, p.D,
		0, 0, 0, 1,
	})
}

// dhChain is a serial arm described by standard DH parameters.
type dhChain struct {
	name   string
	params []DHParam
}

// NewDHChain creates a serial arm from one DH parameter row per revolute joint.
func NewDHChain(name string, params []DHParam) (Kinematics, error) {
	if len(params) == 0 {
		return nil, errors.New("DH chain needs at least one joint")
	}
	cp := make([]DHParam, len(params))
	copy(cp, params)
	return &dhChain{name: name, params: cp}, nil
}

func (dh *dhChain) Name() string {
	return dh.name
}

func (dh *dhChain) DoF() int {
	return len(dh.params)
}

// Transform returns the base followed by the origin of every joint frame, the last one being the end effector.
func (dh *dhChain) Transform(q Configuration) ([]r3.Vector, error) {
	if len(q) != len(dh.params) {
		return nil, NewIncorrectDoFError(len(q), len(dh.params))
	}
	points := make([]r3.Vector, 0, len(dh.params)+1)
	points = append(points, r3.Vector{})

	cur := mat.NewDiagDense(4, []float64{1, 1, 1, 1})
	var acc mat.Dense
	acc.CloneFrom(cur)
	for i, p := range dh.params {
		var next mat.Dense
		next.Mul(&acc, p.transform(q[i]))
		acc.CloneFrom(&next)
		points = append(points, r3.Vector{X: acc.At(0, 3), Y: acc.At(1, 3), Z: acc.At(2, 3)})
	}
	return points, nil
}
