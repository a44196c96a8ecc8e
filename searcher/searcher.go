// Package searcher provides reusable execution contexts for query tasks.
//
// One query task owns one Searcher for its whole lifetime: the explicit
// traversal stack, the accepted-hit buffer, and the ranking heap are all
// scratch memory that would otherwise be reallocated for every one of the
// N queries an all-points run performs.
package searcher

import (
	"sync"

	"github.com/hupe1980/rangego/queue"
)

// Searcher is a reusable execution context for one query task.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single
// goroutine for the duration of a query.
type Searcher struct {
	// Stack is the explicit traversal stack of node indexes. Bounded by
	// the tree depth, so worst-case memory per concurrent query is fixed.
	Stack []int32

	// Hits buffers accepted candidates before they are published to the
	// query's result row.
	Hits []uint32

	// Ranked is a bounded max-heap used by the nearest-ordering mode.
	Ranked *queue.PriorityQueue

	// OpsPerformed counts node visits during traversal.
	OpsPerformed int
}

var searcherPool = sync.Pool{
	New: func() interface{} {
		return NewSearcher(64, 64)
	},
}

// AcquireSearcher retrieves a Searcher from the pool and prepares it for
// a tree of the given depth and a result capacity of k.
func AcquireSearcher(depth, k int) *Searcher {
	s := searcherPool.Get().(*Searcher)
	if cap(s.Stack) < depth {
		s.Stack = make([]int32, 0, depth)
	}
	if cap(s.Hits) < k {
		s.Hits = make([]uint32, 0, k)
	}
	s.Ranked.EnsureCapacity(k)
	s.OpsPerformed = 0
	return s
}

// ReleaseSearcher resets the Searcher and returns it to the pool.
func ReleaseSearcher(s *Searcher) {
	s.Reset()
	searcherPool.Put(s)
}

// NewSearcher creates a Searcher sized for a tree of the given depth and
// a result capacity of k.
func NewSearcher(depth, k int) *Searcher {
	return &Searcher{
		Stack:  make([]int32, 0, depth),
		Hits:   make([]uint32, 0, k),
		Ranked: queue.NewMax(k),
	}
}

// Reset clears the searcher state for reuse without freeing memory.
func (s *Searcher) Reset() {
	s.Stack = s.Stack[:0]
	s.Hits = s.Hits[:0]
	s.Ranked.Reset()
	s.OpsPerformed = 0
}
