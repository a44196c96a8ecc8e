package bvh

import (
	"github.com/hupe1980/rangego/distance"
	"github.com/hupe1980/rangego/searcher"
)

// RangeSearch implements index.Index using pooled traversal state.
//
// Candidates are reported in a canonical depth-first, left-to-right order
// fixed by the tree structure: repeated searches over the same tree visit
// hits in the same sequence.
func (t *Tree) RangeSearch(q [3]float32, self uint32, visit func(id uint32) bool) {
	s := searcher.AcquireSearcher(t.maxDepth+1, 0)
	defer searcher.ReleaseSearcher(s)

	t.RangeSearchWith(s, q, self, visit)
}

// RangeSearchWith runs the traversal with caller-owned scratch state.
// Query tasks that issue many searches reuse one Searcher across all of
// them instead of hitting the pool per call.
func (t *Tree) RangeSearchWith(s *searcher.Searcher, q [3]float32, self uint32, visit func(id uint32) bool) {
	if len(t.nodes) == 0 {
		return
	}

	r2 := t.radius * t.radius

	stack := s.Stack[:0]
	stack = append(stack, 0)

	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.OpsPerformed++

		nd := &t.nodes[ni]
		if !nd.bounds.Contains(q) {
			continue
		}

		if nd.left == leafChild {
			id := uint32(nd.right)
			if id == self {
				continue
			}
			if distance.SquaredL23(q, t.points[id]) <= r2 {
				if !visit(id) {
					break
				}
			}
			continue
		}

		// Right first so the left child pops first.
		stack = append(stack, nd.right, nd.left)
	}

	s.Stack = stack[:0]
}
