package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_MaxHeap(t *testing.T) {
	pq := NewMax(8)
	for _, c := range []Candidate{
		{ID: 3, Distance: 1.5},
		{ID: 1, Distance: 4.0},
		{ID: 4, Distance: 0.5},
		{ID: 2, Distance: 2.5},
	} {
		pq.Push(c)
	}
	require.Equal(t, 4, pq.Len())

	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, uint32(1), top.ID)

	var got []uint32
	for {
		c, ok := pq.Pop()
		if !ok {
			break
		}
		got = append(got, c.ID)
	}
	assert.Equal(t, []uint32{1, 2, 3, 4}, got, "expected descending distance order")
	assert.Equal(t, 0, pq.Len())
}

func TestPriorityQueue_MinHeap(t *testing.T) {
	pq := NewMin(8)
	for _, c := range []Candidate{
		{ID: 3, Distance: 1.5},
		{ID: 1, Distance: 4.0},
		{ID: 4, Distance: 0.5},
		{ID: 2, Distance: 2.5},
	} {
		pq.Push(c)
	}

	var got []uint32
	for {
		c, ok := pq.Pop()
		if !ok {
			break
		}
		got = append(got, c.ID)
	}
	assert.Equal(t, []uint32{4, 3, 2, 1}, got, "expected ascending distance order")
}

func TestPriorityQueue_PushBounded(t *testing.T) {
	t.Run("KeepsBestK", func(t *testing.T) {
		pq := NewMax(3)
		for i, d := range []float32{9, 7, 5, 3, 1, 8, 2} {
			pq.PushBounded(Candidate{ID: uint32(i), Distance: d}, 3)
		}
		require.Equal(t, 3, pq.Len())

		got := pq.Drain(nil)
		require.Len(t, got, 3)
		// Drain pops worst first, so the final element is the overall best.
		assert.Equal(t, float32(3), got[0].Distance)
		assert.Equal(t, float32(2), got[1].Distance)
		assert.Equal(t, float32(1), got[2].Distance)
	})

	t.Run("DropsWorse", func(t *testing.T) {
		pq := NewMax(2)
		pq.PushBounded(Candidate{ID: 0, Distance: 1}, 2)
		pq.PushBounded(Candidate{ID: 1, Distance: 2}, 2)
		pq.PushBounded(Candidate{ID: 2, Distance: 5}, 2)
		require.Equal(t, 2, pq.Len())

		top, ok := pq.Top()
		require.True(t, ok)
		assert.Equal(t, float32(2), top.Distance)
	})

	t.Run("TieEvictsLargerID", func(t *testing.T) {
		pq := NewMax(2)
		pq.PushBounded(Candidate{ID: 5, Distance: 1}, 2)
		pq.PushBounded(Candidate{ID: 9, Distance: 1}, 2)
		pq.PushBounded(Candidate{ID: 2, Distance: 1}, 2)

		got := pq.Drain(nil)
		require.Len(t, got, 2)
		assert.Equal(t, uint32(5), got[0].ID)
		assert.Equal(t, uint32(2), got[1].ID)
	})
}

func TestPriorityQueue_PopEmpty(t *testing.T) {
	pq := NewMax(4)
	_, ok := pq.Pop()
	assert.False(t, ok)

	_, ok = pq.Top()
	assert.False(t, ok)
}

func TestPriorityQueue_Reset(t *testing.T) {
	pq := NewMin(4)
	pq.Push(Candidate{ID: 1, Distance: 1})
	pq.Push(Candidate{ID: 2, Distance: 2})
	pq.Reset()

	assert.Equal(t, 0, pq.Len())
	_, ok := pq.Pop()
	assert.False(t, ok)
}

func TestPriorityQueue_EnsureCapacity(t *testing.T) {
	pq := NewMin(1)
	pq.Push(Candidate{ID: 1, Distance: 1})
	pq.EnsureCapacity(64)

	require.Equal(t, 1, pq.Len())
	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, uint32(1), top.ID)
}
