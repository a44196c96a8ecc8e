// Package queue provides a value-based binary heap over search candidates.
//
// The max-heap form doubles as a bounded best-k tracker: push with
// PushBounded and the worst candidate (largest distance, largest id on
// ties) is evicted once the bound is reached.
package queue

// Candidate pairs a point id with its distance to the query center.
type Candidate struct {
	ID       uint32
	Distance float32
}

// PriorityQueue is a binary heap of candidates. Value-based storage keeps
// it allocation-free in the steady state.
//
// Ties on distance are broken by id, so heap contents are deterministic
// for a given input set regardless of push order.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Candidate
}

// NewMax creates a max-heap (largest distance on top).
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: true, items: make([]Candidate, 0, capacity)}
}

// NewMin creates a min-heap (smallest distance on top).
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: false, items: make([]Candidate, 0, capacity)}
}

// Len returns the number of candidates in the heap.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Push inserts a candidate.
func (pq *PriorityQueue) Push(c Candidate) {
	pq.items = append(pq.items, c)
	pq.siftUp(len(pq.items) - 1)
}

// PushBounded inserts a candidate into a heap bounded at capacity
// elements. On a full max-heap a candidate better than the top (smaller
// distance, smaller id on ties) replaces it; worse candidates are dropped.
func (pq *PriorityQueue) PushBounded(c Candidate, capacity int) {
	if len(pq.items) < capacity {
		pq.Push(c)
		return
	}

	top := pq.items[0]
	if pq.before(c, top) {
		pq.items[0] = c
		pq.siftDown(0)
	}
}

// Pop removes and returns the top candidate.
func (pq *PriorityQueue) Pop() (Candidate, bool) {
	n := len(pq.items)
	if n == 0 {
		return Candidate{}, false
	}

	top := pq.items[0]
	pq.items[0] = pq.items[n-1]
	pq.items = pq.items[:n-1]
	if len(pq.items) > 0 {
		pq.siftDown(0)
	}
	return top, true
}

// Top returns the top candidate without removing it.
func (pq *PriorityQueue) Top() (Candidate, bool) {
	if len(pq.items) == 0 {
		return Candidate{}, false
	}
	return pq.items[0], true
}

// Drain removes all candidates in heap order, appending them to dst.
func (pq *PriorityQueue) Drain(dst []Candidate) []Candidate {
	for {
		c, ok := pq.Pop()
		if !ok {
			return dst
		}
		dst = append(dst, c)
	}
}

// Reset clears the heap without freeing memory.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

// EnsureCapacity grows the backing slice to hold at least n candidates.
func (pq *PriorityQueue) EnsureCapacity(n int) {
	if cap(pq.items) < n {
		items := make([]Candidate, len(pq.items), n)
		copy(items, pq.items)
		pq.items = items
	}
}

// before reports whether a outranks b from the top's perspective.
func (pq *PriorityQueue) before(a, b Candidate) bool {
	if a.Distance != b.Distance {
		if pq.isMaxHeap {
			return a.Distance < b.Distance
		}
		return a.Distance > b.Distance
	}
	if pq.isMaxHeap {
		return a.ID < b.ID
	}
	return a.ID > b.ID
}

// less orders the heap itself: the "worst" candidate sits on top.
func (pq *PriorityQueue) less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.Distance != b.Distance {
		if pq.isMaxHeap {
			return a.Distance > b.Distance
		}
		return a.Distance < b.Distance
	}
	if pq.isMaxHeap {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.items[i], pq.items[parent] = pq.items[parent], pq.items[i]
		i = parent
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && pq.less(right, left) {
			child = right
		}
		if !pq.less(child, i) {
			break
		}
		pq.items[i], pq.items[child] = pq.items[child], pq.items[i]
		i = child
	}
}
