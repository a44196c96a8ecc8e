// Package resource enforces the engine's global resource ceilings: bytes
// of managed memory (result rows, index arrays), concurrent index builds,
// and ingest IO throughput.
package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimit is returned when a single reservation is larger than the
// configured memory limit and could never be admitted.
var ErrMemoryLimit = errors.New("resource: reservation exceeds memory limit")

// Config holds the resource ceilings. Zero values disable the respective
// limit.
type Config struct {
	// MemoryLimitBytes caps managed memory. If 0 usage is tracked but
	// never blocked.
	MemoryLimitBytes int64

	// MaxBuilders caps concurrent index builds. If 0, one build at a time.
	MaxBuilders int64

	// IngestBytesPerSec throttles source reads. If 0, unthrottled.
	IngestBytesPerSec int64
}

// Controller mediates access to the configured ceilings. A nil Controller
// admits everything, so callers never need to guard against one.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted
	memUsed atomic.Int64

	buildSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a controller for the given ceilings.
func NewController(cfg Config) *Controller {
	if cfg.MaxBuilders <= 0 {
		cfg.MaxBuilders = 1
	}

	c := &Controller{
		cfg:      cfg,
		buildSem: semaphore.NewWeighted(cfg.MaxBuilders),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IngestBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IngestBytesPerSec), int(cfg.IngestBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes of managed memory, blocking until the
// reservation fits under the limit or ctx is done. A reservation larger
// than the whole limit fails immediately with ErrMemoryLimit instead of
// blocking forever.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return ErrMemoryLimit
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking. It reports whether the
// reservation was admitted.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory returns a reservation made by AcquireMemory or
// TryAcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireBuild reserves an index build slot, blocking until one frees up
// or ctx is done.
func (c *Controller) AcquireBuild(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.buildSem.Acquire(ctx, 1)
}

// TryAcquireBuild reserves a build slot without blocking.
func (c *Controller) TryAcquireBuild() bool {
	if c == nil {
		return true
	}
	return c.buildSem.TryAcquire(1)
}

// ReleaseBuild returns a build slot.
func (c *Controller) ReleaseBuild() {
	if c == nil {
		return
	}
	c.buildSem.Release(1)
}

// WaitIO blocks until the ingest throttle admits the given number of
// bytes.
func (c *Controller) WaitIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

// ioBurst returns the largest chunk WaitIO can admit in one call, or 0
// when IO is unthrottled.
func (c *Controller) ioBurst() int {
	if c == nil || c.ioLimiter == nil {
		return 0
	}
	return c.ioLimiter.Burst()
}
