package motionplan

import (
	"github.com/pkg/errors"

	"github.com/jointspace/rrtstar/referenceframe"
)

// Node is a configuration in a planning tree together with its parent and its accumulated cost from the root.
type Node struct {
	q        referenceframe.Configuration
	parent   int
	cost     float64
	index    int
	children []int
}

// Q returns a copy of the node's configuration.
func (n *Node) Q() referenceframe.Configuration {
	return n.q.Clone()
}

// Parent returns the insertion index of the node's parent, or -1 for the root.
func (n *Node) Parent() int {
	return n.parent
}

// Cost returns the accumulated cost of reaching the node from the root. Without cost cascading, the cost of a
// node whose ancestor was rewired is not updated and may be higher than the true cost of its chain.
func (n *Node) Cost() float64 {
	return n.cost
}

// Index returns the node's insertion index, which is stable for the lifetime of the tree.
func (n *Node) Index() int {
	return n.index
}

// Tree is an arena of nodes indexed by insertion order. Nodes are never removed, only re-parented.
type Tree struct {
	nodes   []*Node
	metric  SegmentMetric
	cascade bool
}

// newTree creates a tree holding only root, at cost zero. metric is used to recompute costs when cascade is set.
func newTree(root referenceframe.Configuration, metric SegmentMetric, cascade bool) *Tree {
	t := &Tree{metric: metric, cascade: cascade}
	t.nodes = append(t.nodes, &Node{q: root.Clone(), parent: -1, index: 0})
	return t
}

// Size returns the number of nodes in the tree.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// Root returns the start node.
func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Node returns the node with insertion index i, or nil if there is none.
func (t *Tree) Node(i int) *Node {
	if i < 0 || i >= len(t.nodes) {
		return nil
	}
	return t.nodes[i]
}

// Nodes returns every node in insertion order.
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, len(t.nodes))
	copy(nodes, t.nodes)
	return nodes
}

// insert adds q as a child of parent and returns the new node.
func (t *Tree) insert(q referenceframe.Configuration, parent *Node, cost float64) *Node {
	n := &Node{q: q, parent: parent.index, cost: cost, index: len(t.nodes)}
	t.nodes = append(t.nodes, n)
	parent.children = append(parent.children, n.index)
	return n
}

// reparent makes newParent the parent of n with the given cost. Re-parenting n under one of its own
// descendants would create a cycle and is refused.
func (t *Tree) reparent(n, newParent *Node, newCost float64) error {
	if n.parent < 0 {
		return errors.New("cannot re-parent the root")
	}
	for cur := newParent; ; cur = t.nodes[cur.parent] {
		if cur.index == n.index {
			return errors.Errorf("re-parenting node %d under node %d would create a cycle", n.index, newParent.index)
		}
		if cur.parent < 0 {
			break
		}
	}

	old := t.nodes[n.parent]
	for i, c := range old.children {
		if c == n.index {
			old.children = append(old.children[:i], old.children[i+1:]...)
			break
		}
	}
	newParent.children = append(newParent.children, n.index)
	n.parent = newParent.index
	n.cost = newCost

	if t.cascade {
		t.propagateCost(n)
	}
	return nil
}

// propagateCost recomputes the cost of every descendant of n from its parent's cost.
func (t *Tree) propagateCost(n *Node) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range cur.children {
			child := t.nodes[c]
			child.cost = cur.cost + t.metric(cur.q, child.q)
			stack = append(stack, child)
		}
	}
}

// pathToRoot returns the configurations from the root down to n.
func (t *Tree) pathToRoot(n *Node) Path {
	path := make(Path, 0)
	for cur := n; ; cur = t.nodes[cur.parent] {
		path = append(path, cur.q.Clone())
		if cur.parent < 0 {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
