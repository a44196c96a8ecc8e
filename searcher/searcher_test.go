package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangego/queue"
)

func TestNewSearcher(t *testing.T) {
	s := NewSearcher(32, 16)

	assert.Equal(t, 0, len(s.Stack))
	assert.GreaterOrEqual(t, cap(s.Stack), 32)
	assert.Equal(t, 0, len(s.Hits))
	assert.GreaterOrEqual(t, cap(s.Hits), 16)
	assert.Equal(t, 0, s.Ranked.Len())
}

func TestAcquireSearcher(t *testing.T) {
	t.Run("GrowsToRequestedSize", func(t *testing.T) {
		s := AcquireSearcher(1024, 512)
		defer ReleaseSearcher(s)

		assert.GreaterOrEqual(t, cap(s.Stack), 1024)
		assert.GreaterOrEqual(t, cap(s.Hits), 512)
	})

	t.Run("CleanAfterRelease", func(t *testing.T) {
		s := AcquireSearcher(8, 8)
		s.Stack = append(s.Stack, 1, 2, 3)
		s.Hits = append(s.Hits, 42)
		s.Ranked.Push(queue.Candidate{ID: 7, Distance: 1})
		s.OpsPerformed = 99
		ReleaseSearcher(s)

		reused := AcquireSearcher(8, 8)
		defer ReleaseSearcher(reused)

		assert.Empty(t, reused.Stack)
		assert.Empty(t, reused.Hits)
		assert.Equal(t, 0, reused.Ranked.Len())
		assert.Equal(t, 0, reused.OpsPerformed)
	})
}

func TestSearcher_Reset(t *testing.T) {
	s := NewSearcher(8, 8)
	s.Stack = append(s.Stack, 5)
	s.Hits = append(s.Hits, 1, 2)
	s.Ranked.Push(queue.Candidate{ID: 1, Distance: 2})
	s.OpsPerformed = 3

	s.Reset()

	require.Empty(t, s.Stack)
	require.Empty(t, s.Hits)
	require.Equal(t, 0, s.Ranked.Len())
	require.Equal(t, 0, s.OpsPerformed)

	// Backing arrays survive the reset.
	assert.GreaterOrEqual(t, cap(s.Stack), 8)
	assert.GreaterOrEqual(t, cap(s.Hits), 8)
}
