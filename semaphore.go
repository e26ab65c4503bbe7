package fiberz

import (
	"context"
	"time"
)

// Semaphore is a fiber-level counting semaphore, used throughout fiberz
// itself to bound concurrency (e.g. WorkerPool limiting in-flight
// fibers) the way a buffered channel token pool bounds goroutines.
type Semaphore struct {
	q     waitQueue
	count int
}

// NewSemaphore returns a Semaphore with initial permits available.
func NewSemaphore(initial int) *Semaphore {
	return &Semaphore{count: initial}
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire(ctx context.Context) {
	s.acquireTimeout(ctx, 0)
}

// AcquireTimeout is Acquire with a deadline.
func (s *Semaphore) AcquireTimeout(ctx context.Context, d time.Duration) WaitResult {
	return s.acquireTimeout(ctx, d)
}

func (s *Semaphore) acquireTimeout(ctx context.Context, d time.Duration) WaitResult {
	res, waited := parkIf(ctx, &s.q, d, func() bool {
		if s.count > 0 {
			s.count--
			return false
		}
		return true
	})
	if !waited {
		return WaitResult{Signaled: true}
	}
	return res
}

// TryAcquire takes a permit without blocking.
func (s *Semaphore) TryAcquire() bool {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Release returns n permits (n <= 0 is treated as 1), handing each one
// directly to the oldest waiter rather than incrementing count and
// separately waking it - avoiding the double-credit bug that scheme
// would introduce.
func (s *Semaphore) Release(n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.q.mu.Lock()
		if len(s.q.waiters) == 0 {
			s.count++
			s.q.mu.Unlock()
			continue
		}
		w := s.q.waiters[0]
		s.q.waiters = s.q.waiters[1:]
		s.q.mu.Unlock()

		if w.woken.CompareAndSwap(false, true) {
			w.result = WaitResult{Signaled: true}
			w.cancelWatcher()
			w.fiber.ready()
			continue
		}
		// w already timed out independently; its permit goes to the pool.
		s.q.mu.Lock()
		s.count++
		s.q.mu.Unlock()
	}
}

// Available returns the current permit count.
func (s *Semaphore) Available() int {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.count
}
