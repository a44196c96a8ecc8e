package rangego

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed pool of goroutines for parallel tasks.
// The engine uses one to run the per-batch index builds without spawning
// a goroutine per batch on wide datasets.
type WorkerPool struct {
	numWorkers int
	workCh     chan func() // Channel carries work closures
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool // Tracks if pool is closed
	submitMu   sync.RWMutex
}

// NewWorkerPool creates a worker pool with numWorkers goroutines.
// numWorkers <= 0 means runtime.GOMAXPROCS(0).
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	wp := &WorkerPool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), numWorkers*2), // 2x buffer for pipelining
		stopCh:     make(chan struct{}),
	}

	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker()
	}

	return wp
}

// worker processes work closures from the work channel.
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopCh:
			// Drain remaining work before exiting
			for {
				select {
				case workFunc, ok := <-wp.workCh:
					if !ok {
						return
					}
					workFunc()
				default:
					return
				}
			}
		case workFunc, ok := <-wp.workCh:
			if !ok {
				return
			}
			workFunc()
		}
	}
}

// Submit submits a task to the worker pool.
//
// The function returns immediately after enqueueing the work. It returns
// ErrClosed if the pool has been closed and the context error if ctx is
// cancelled before the work could be enqueued.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrClosed
	}

	// Enqueue work (with backpressure)
	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the worker pool gracefully.
func (wp *WorkerPool) Close() {
	// Mark as closed (atomic, idempotent)
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()

	wp.wg.Wait()
}
