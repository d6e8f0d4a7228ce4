package motionplan

import (
	"context"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"

	"github.com/jointspace/rrtstar/referenceframe"
	"github.com/jointspace/rrtstar/utils"
)

// Above this many nodes, linear scans are split across goroutines.
const neighborsBeforeParallelization = 1000

// Half-width of the box each node occupies in the R-tree.
const rtreePointTolerance = 1e-9

// neighborIndex answers the nearest and radius queries of the planner. Both queries are exact and deterministic:
// nearest breaks distance ties by the lowest insertion index, and withinRadius returns nodes in insertion order.
type neighborIndex interface {
	add(n *Node)
	nearest(ctx context.Context, q referenceframe.Configuration) *Node
	withinRadius(ctx context.Context, q referenceframe.Configuration, r float64) []*Node
}

func newNeighborIndex(kind NeighborIndexType, dim, nCPU int) (neighborIndex, error) {
	switch kind {
	case LinearIndex, "":
		return &linearIndex{nCPU: nCPU}, nil
	case RTreeIndex:
		if dim < 1 {
			return nil, errors.Errorf("cannot build an R-tree over %d dimensions", dim)
		}
		return &rtreeIndex{tree: rtreego.NewTree(dim, 25, 50)}, nil
	default:
		return nil, newUnknownOptionError("neighbor_index", string(kind), string(LinearIndex), string(RTreeIndex))
	}
}

type neighbor struct {
	dist float64
	node *Node
}

// better orders neighbors by distance, then by insertion index.
func (nb neighbor) better(other neighbor) bool {
	if other.node == nil {
		return nb.node != nil
	}
	if nb.node == nil {
		return false
	}
	if nb.dist != other.dist {
		return nb.dist < other.dist
	}
	return nb.node.index < other.node.index
}

// linearIndex scans every node.
type linearIndex struct {
	nodes []*Node
	nCPU  int
}

func (nm *linearIndex) add(n *Node) {
	nm.nodes = append(nm.nodes, n)
}

func (nm *linearIndex) parallel() bool {
	return len(nm.nodes) > neighborsBeforeParallelization && nm.nCPU > 1
}

func (nm *linearIndex) nearest(ctx context.Context, q referenceframe.Configuration) *Node {
	if nm.parallel() {
		// If the tree is large, calculate distances in parallel
		if best, err := nm.parallelNearest(ctx, q); err == nil {
			return best
		}
	}
	return nearestInRange(nm.nodes, q).node
}

func nearestInRange(nodes []*Node, q referenceframe.Configuration) neighbor {
	best := neighbor{dist: math.Inf(1)}
	for _, n := range nodes {
		dist := referenceframe.InputsL2Distance(q, n.q)
		// strict comparison keeps the earliest node on ties
		if best.node == nil || dist < best.dist {
			best = neighbor{dist: dist, node: n}
		}
	}
	return best
}

func (nm *linearIndex) parallelNearest(ctx context.Context, q referenceframe.Configuration) (*Node, error) {
	results := make([]neighbor, nm.nCPU)
	err := utils.GroupWorkParallel(ctx, len(nm.nodes), nm.nCPU, func(groupNum, from, to int) {
		results[groupNum] = nearestInRange(nm.nodes[from:to], q)
	})
	if err != nil {
		return nil, err
	}
	best := neighbor{dist: math.Inf(1)}
	for _, r := range results {
		if r.better(best) {
			best = r
		}
	}
	return best.node, nil
}

func (nm *linearIndex) withinRadius(ctx context.Context, q referenceframe.Configuration, r float64) []*Node {
	if nm.parallel() {
		if found, err := nm.parallelWithinRadius(ctx, q, r); err == nil {
			return found
		}
	}
	return withinRadiusInRange(nm.nodes, q, r)
}

func withinRadiusInRange(nodes []*Node, q referenceframe.Configuration, r float64) []*Node {
	found := make([]*Node, 0)
	for _, n := range nodes {
		if referenceframe.InputsL2Distance(q, n.q) <= r {
			found = append(found, n)
		}
	}
	return found
}

func (nm *linearIndex) parallelWithinRadius(ctx context.Context, q referenceframe.Configuration, r float64) ([]*Node, error) {
	results := make([][]*Node, nm.nCPU)
	err := utils.GroupWorkParallel(ctx, len(nm.nodes), nm.nCPU, func(groupNum, from, to int) {
		results[groupNum] = withinRadiusInRange(nm.nodes[from:to], q, r)
	})
	if err != nil {
		return nil, err
	}
	// groups cover contiguous, increasing ranges so concatenating them keeps insertion order
	found := make([]*Node, 0)
	for _, group := range results {
		found = append(found, group...)
	}
	return found, nil
}

// rtreeEntry wraps a node for R-tree storage.
type rtreeEntry struct {
	node *Node
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface.
func (e *rtreeEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// rtreeIndex keeps node configurations in an R-tree. Box queries produce candidates which are then filtered
// by exact distance, so results match linearIndex.
type rtreeIndex struct {
	tree *rtreego.Rtree
	size int
}

func (ri *rtreeIndex) add(n *Node) {
	ri.tree.Insert(&rtreeEntry{node: n, bbox: rtreego.Point(n.q).ToRect(rtreePointTolerance)})
	ri.size++
}

// searchBox returns every node whose box intersects the cube of half-width r around q.
func (ri *rtreeIndex) searchBox(q referenceframe.Configuration, r float64) []*Node {
	halfWidth := r + rtreePointTolerance
	corner := make(rtreego.Point, len(q))
	lengths := make([]float64, len(q))
	for i, v := range q {
		corner[i] = v - halfWidth
		lengths[i] = 2 * halfWidth
	}
	bbox, err := rtreego.NewRect(corner, lengths)
	if err != nil {
		return nil
	}
	results := ri.tree.SearchIntersect(bbox)
	nodes := make([]*Node, 0, len(results))
	for _, item := range results {
		nodes = append(nodes, item.(*rtreeEntry).node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].index < nodes[j].index
	})
	return nodes
}

func (ri *rtreeIndex) nearest(ctx context.Context, q referenceframe.Configuration) *Node {
	if ri.size == 0 {
		return nil
	}
	candidate := ri.tree.NearestNeighbor(rtreego.Point(q))
	if candidate == nil {
		return nil
	}
	// The candidate is nearest up to the box tolerance. Every node at least as close lies within its distance.
	found := candidate.(*rtreeEntry).node
	dist := referenceframe.InputsL2Distance(q, found.q)
	if best := nearestInRange(ri.searchBox(q, dist), q); best.better(neighbor{dist: dist, node: found}) {
		return best.node
	}
	return found
}

func (ri *rtreeIndex) withinRadius(ctx context.Context, q referenceframe.Configuration, r float64) []*Node {
	if ri.size == 0 || r < 0 {
		return []*Node{}
	}
	return withinRadiusInRange(ri.searchBox(q, r), q, r)
}
