package fiberz

import (
	"context"
	"time"
)

// Cond is a fiber-level condition variable paired with a Mutex, matching
// the design's waitable condition_variable (§4.3). The caller must hold
// L before calling Wait/WaitTimeout, exactly as with sync.Cond.
type Cond struct {
	L       *Mutex
	waiters waitQueue
}

// NewCond returns a new Cond backed by l.
func NewCond(l *Mutex) *Cond {
	return &Cond{L: l}
}

// Wait atomically unlocks L and suspends the calling fiber until Signal
// or Broadcast wakes it, then reacquires L before returning. The
// enqueue-then-unlock ordering is what makes this atomic with respect to
// a concurrent Signal: any fiber that can observe the state this Wait is
// watching must first acquire L, which cannot happen until after this
// fiber has already enqueued itself.
func (c *Cond) Wait(ctx context.Context) {
	c.waitTimeout(ctx, 0)
}

// WaitTimeout is Wait with a deadline. Returns TimedOut if the deadline
// passed before a signal arrived.
func (c *Cond) WaitTimeout(ctx context.Context, d time.Duration) WaitResult {
	return c.waitTimeout(ctx, d)
}

func (c *Cond) waitTimeout(ctx context.Context, d time.Duration) WaitResult {
	f := mustCurrent(ctx)
	n := newWaitNode(f)
	c.waiters.enqueue(n)
	c.L.Unlock()

	armTimeout(&c.waiters, n, f, d)
	res := suspendOn(f, n)

	c.L.Lock(ctx)
	return res
}

// Signal wakes one waiting fiber, if any.
func (c *Cond) Signal() { c.waiters.wakeOne() }

// Broadcast wakes every waiting fiber.
func (c *Cond) Broadcast() { c.waiters.wakeAll() }
