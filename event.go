package fiberz

import (
	"context"
	"time"
)

// Event is a manual-reset waitable flag: Set wakes every current and
// future waiter until Reset clears it again. Matches the design's
// waitable event (§4.3).
type Event struct {
	q   waitQueue
	set bool
}

// Set marks the event signaled and wakes every waiting fiber.
func (e *Event) Set() {
	e.q.mu.Lock()
	e.set = true
	e.q.mu.Unlock()
	e.q.wakeAll()
}

// Reset clears the event. Fibers already woken by a prior Set are
// unaffected; only future Wait calls will block again.
func (e *Event) Reset() {
	e.q.mu.Lock()
	e.set = false
	e.q.mu.Unlock()
}

// IsSet reports whether the event is currently signaled.
func (e *Event) IsSet() bool {
	e.q.mu.Lock()
	defer e.q.mu.Unlock()
	return e.set
}

// Wait blocks until the event is signaled.
func (e *Event) Wait(ctx context.Context) {
	e.waitTimeout(ctx, 0)
}

// WaitTimeout is Wait with a deadline.
func (e *Event) WaitTimeout(ctx context.Context, d time.Duration) WaitResult {
	return e.waitTimeout(ctx, d)
}

func (e *Event) waitTimeout(ctx context.Context, d time.Duration) WaitResult {
	res, waited := parkIf(ctx, &e.q, d, func() bool { return !e.set })
	if !waited {
		return WaitResult{Signaled: true}
	}
	return res
}
