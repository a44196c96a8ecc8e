package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Over the limit: non-blocking admission fails.
	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Over the limit: blocking admission times out with the context.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryOversizedReservation(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	// A reservation that could never fit fails fast instead of blocking.
	err := c.AcquireMemory(context.Background(), 101)
	require.ErrorIs(t, err, ErrMemoryLimit)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_NilAdmitsEverything(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	assert.True(t, c.TryAcquireMemory(1<<40))
	c.ReleaseMemory(1 << 40)
	assert.Equal(t, int64(0), c.MemoryUsage())

	require.NoError(t, c.AcquireBuild(context.Background()))
	c.ReleaseBuild()
	require.NoError(t, c.WaitIO(context.Background(), 1<<30))
}

func TestController_BuildSlots(t *testing.T) {
	c := NewController(Config{MaxBuilders: 2})

	require.NoError(t, c.AcquireBuild(context.Background()))
	require.NoError(t, c.AcquireBuild(context.Background()))

	assert.False(t, c.TryAcquireBuild())

	c.ReleaseBuild()
	assert.True(t, c.TryAcquireBuild())
}

func TestController_DefaultSingleBuilder(t *testing.T) {
	c := NewController(Config{})

	require.True(t, c.TryAcquireBuild())
	assert.False(t, c.TryAcquireBuild())
	c.ReleaseBuild()
}

func TestThrottledReader(t *testing.T) {
	t.Run("Unthrottled", func(t *testing.T) {
		c := NewController(Config{})
		r := NewThrottledReader(context.Background(), strings.NewReader("hello world"), c)

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(data))
	})

	t.Run("CapsReadAtBurst", func(t *testing.T) {
		// Burst equals the rate, so a 1 MiB buffer must be split rather
		// than rejected by the limiter.
		c := NewController(Config{IngestBytesPerSec: 1 << 20})
		r := NewThrottledReader(context.Background(), strings.NewReader("throttled"), c)

		buf := make([]byte, 4<<20)
		n, err := r.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "throttled", string(buf[:n]))
	})

	t.Run("CanceledContext", func(t *testing.T) {
		c := NewController(Config{IngestBytesPerSec: 1})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := NewThrottledReader(ctx, strings.NewReader("xx"), c)
		_, err := io.ReadAll(r)
		require.Error(t, err)
	})
}

func TestThrottledWriter(t *testing.T) {
	var buf bytes.Buffer
	c := NewController(Config{IngestBytesPerSec: 1 << 20})
	w := NewThrottledWriter(context.Background(), &buf, c)

	// One full burst plus a small tail, so the chunk loop runs twice.
	payload := bytes.Repeat([]byte("a"), 1<<20+1024)
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf.Bytes())
}
