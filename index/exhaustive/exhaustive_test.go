package exhaustive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangego/index"
	"github.com/hupe1980/rangego/testutil"
)

func TestNew(t *testing.T) {
	t.Run("EmptyBatch", func(t *testing.T) {
		_, err := New(nil, 1)
		require.ErrorIs(t, err, index.ErrNoPoints)
	})

	t.Run("InvalidRadius", func(t *testing.T) {
		_, err := New([][3]float32{{0, 0, 0}}, -1)
		require.ErrorIs(t, err, index.ErrInvalidRadius)
	})
}

func TestScanner_RangeSearch(t *testing.T) {
	points := testutil.NewRNG(13).UniformCloud(150, 10)
	s, err := New(points, 2)
	require.NoError(t, err)
	require.Equal(t, 150, s.Len())

	for q := 0; q < 150; q++ {
		want := testutil.BruteRange(points, points[q], uint32(q), 2)

		var got []uint32
		s.RangeSearch(points[q], uint32(q), func(id uint32) bool {
			got = append(got, id)
			return true
		})
		assert.Equal(t, want, got, "query %d", q)
	}
}

func TestScanner_AscendingOrder(t *testing.T) {
	points := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {9, 9, 9}}
	s, err := New(points, 2)
	require.NoError(t, err)

	var got []uint32
	s.RangeSearch([3]float32{0, 0, 0}, 3, func(id uint32) bool {
		got = append(got, id)
		return true
	})
	assert.Equal(t, []uint32{0, 1, 2}, got)
}

func TestScanner_EarlyStop(t *testing.T) {
	points := testutil.NewRNG(3).ClusteredCloud(50, [3]float32{0, 0, 0}, 0.1)
	s, err := New(points, 5)
	require.NoError(t, err)

	count := 0
	s.RangeSearch(points[0], 0, func(id uint32) bool {
		count++
		return count < 7
	})
	assert.Equal(t, 7, count)
}
