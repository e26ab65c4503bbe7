package fiberz

import (
	"context"
	"sync"
)

// WorkerPool bounds how many fibers of a given kind of work may run at
// once: instead of a buffered chan struct{} guarding goroutines the way a
// classic worker pool would, it uses a Semaphore guarding fiber spawns.
type WorkerPool struct {
	rt    *Runtime
	group *Group
	sem   *Semaphore

	mu      sync.Mutex
	pending int
	done    *Oneshot[struct{}]
}

// NewWorkerPool returns a WorkerPool that allows at most workers
// concurrently-running tasks, spawned into group (or the runtime's
// least-loaded group if group is nil).
func NewWorkerPool(rt *Runtime, group *Group, workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		rt:    rt,
		group: group,
		sem:   NewSemaphore(workers),
	}
}

// Submit acquires a pool slot and spawns fn as a new fiber. Submit itself
// suspends the calling fiber while waiting for a free slot, so it must be
// called from inside a fiber.
func (wp *WorkerPool) Submit(ctx context.Context, name string, fn func(context.Context)) {
	wp.sem.Acquire(ctx)
	wp.mu.Lock()
	wp.pending++
	if wp.pending == 1 {
		// Fresh batch: last round's Oneshot (if any) already fired, so
		// Wait needs a new one to block on.
		wp.done = nil
	}
	wp.mu.Unlock()

	wp.rt.Spawn(ctx, wp.group, name, func(fctx context.Context) {
		defer wp.taskDone()
		fn(fctx)
	})
}

func (wp *WorkerPool) taskDone() {
	wp.sem.Release(1)
	wp.mu.Lock()
	wp.pending--
	empty := wp.pending == 0
	waiter := wp.done
	wp.mu.Unlock()
	if empty && waiter != nil {
		waiter.Fire(struct{}{})
	}
}

// Wait blocks the calling fiber until every task submitted so far has
// finished. Tasks submitted concurrently with Wait may or may not be
// covered, same caveat as sync.WaitGroup.
func (wp *WorkerPool) Wait(ctx context.Context) {
	wp.mu.Lock()
	if wp.pending == 0 {
		wp.mu.Unlock()
		return
	}
	if wp.done == nil {
		wp.done = NewOneshot[struct{}]()
	}
	waiter := wp.done
	wp.mu.Unlock()
	waiter.Wait(ctx)
}

// InFlight returns the number of tasks currently running.
func (wp *WorkerPool) InFlight() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.pending
}
