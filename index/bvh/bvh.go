// Package bvh implements the default spatial index backend, a binary
// bounding-volume hierarchy over per-point primitive boxes.
//
// Every primitive is the axis-aligned box point ± radius and every leaf
// holds exactly one primitive, so any pair of points within the search
// radius is guaranteed to meet during an overlap traversal. Internal node
// bounds are the union of their children's bounds.
//
// Split policy: at each level the point subset is split at the median of
// the axis with the greatest coordinate spread. Sorting each subset costs
// O(n log^2 n) for the whole build but yields a balanced tree with
// predictable log-depth traversal stacks, which matters more here than
// build time: the index is built once per batch and then queried N times.
package bvh

import (
	"sort"

	"github.com/hupe1980/rangego/index"
)

// Compile time check to ensure Tree satisfies the index contract.
var _ index.Index = (*Tree)(nil)

// leafChild marks a node without children.
const leafChild = int32(-1)

// node is one BVH node. Leaves set left to leafChild and store the point
// id in right; internal nodes store child indexes in left and right.
type node struct {
	bounds AABB
	left   int32
	right  int32
}

// Tree is an immutable bounding-volume hierarchy over one batch.
//
// The point slice is borrowed from the dataset and never mutated. A Tree
// is safe for concurrent RangeSearch use after New returns.
type Tree struct {
	points   [][3]float32
	radius   float32
	nodes    []node
	maxDepth int
}

// Stats describes the shape of a built tree.
type Stats struct {
	Points   int
	Nodes    int
	MaxDepth int
}

// New builds a BVH over the given batch projections for the given search
// radius. The points slice is retained; callers must not mutate it.
func New(points [][3]float32, radius float32) (*Tree, error) {
	if err := index.ValidateBuild(points, radius); err != nil {
		return nil, err
	}

	t := &Tree{
		points: points,
		radius: radius,
		// A binary tree with one point per leaf has exactly 2n-1 nodes.
		nodes: make([]node, 0, 2*len(points)-1),
	}

	ids := make([]uint32, len(points))
	for i := range ids {
		ids[i] = uint32(i)
	}
	t.build(ids, 1)

	return t, nil
}

// Builder adapts New to the index.BuilderFunc contract.
func Builder(points [][3]float32, radius float32) (index.Index, error) {
	return New(points, radius)
}

// build appends the subtree covering ids and returns its node index.
func (t *Tree) build(ids []uint32, depth int) int32 {
	ni := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{})

	if depth > t.maxDepth {
		t.maxDepth = depth
	}

	bounds := emptyAABB()
	for _, id := range ids {
		bounds.ExpandPoint(t.points[id], t.radius)
	}

	if len(ids) == 1 {
		t.nodes[ni] = node{bounds: bounds, left: leafChild, right: int32(ids[0])}
		return ni
	}

	axis := t.widestAxis(ids)
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := t.points[ids[i]], t.points[ids[j]]
		if pi[axis] != pj[axis] {
			return pi[axis] < pj[axis]
		}
		// Stable total order keeps rebuilds structurally identical.
		return ids[i] < ids[j]
	})

	mid := len(ids) / 2
	left := t.build(ids[:mid], depth+1)
	right := t.build(ids[mid:], depth+1)
	t.nodes[ni] = node{bounds: bounds, left: left, right: right}

	return ni
}

// widestAxis returns the axis with the greatest centroid spread among ids.
func (t *Tree) widestAxis(ids []uint32) int {
	lo := t.points[ids[0]]
	hi := lo
	for _, id := range ids[1:] {
		p := t.points[id]
		for a := 0; a < 3; a++ {
			if p[a] < lo[a] {
				lo[a] = p[a]
			}
			if p[a] > hi[a] {
				hi[a] = p[a]
			}
		}
	}

	axis := 0
	spread := hi[0] - lo[0]
	for a := 1; a < 3; a++ {
		if hi[a]-lo[a] > spread {
			spread = hi[a] - lo[a]
			axis = a
		}
	}
	return axis
}

// Len returns the number of indexed points.
func (t *Tree) Len() int { return len(t.points) }

// Radius returns the search radius the tree was built for.
func (t *Tree) Radius() float32 { return t.radius }

// Bounds returns the root bound covering all primitive boxes.
func (t *Tree) Bounds() AABB {
	if len(t.nodes) == 0 {
		return AABB{}
	}
	return t.nodes[0].bounds
}

// Stats returns the shape of the tree.
func (t *Tree) Stats() Stats {
	return Stats{
		Points:   len(t.points),
		Nodes:    len(t.nodes),
		MaxDepth: t.maxDepth,
	}
}
