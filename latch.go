package fiberz

import (
	"context"
	"sync/atomic"
	"time"
)

// Latch is a single-use countdown latch: CountDown decrements an initial
// count, and every fiber parked in Wait/WaitTimeout is released once it
// reaches zero. Matches the design's waitable latch (§4.3).
type Latch struct {
	q     waitQueue
	count int64
}

// NewLatch returns a Latch that releases its waiters after n CountDown
// calls. n <= 0 is already released.
func NewLatch(n int64) *Latch {
	return &Latch{count: n}
}

// CountDown decrements the latch's count, broadcasting to every waiter
// once it reaches zero. Calling CountDown after the latch already
// reached zero is a no-op, not misuse.
func (l *Latch) CountDown() {
	l.q.mu.Lock()
	if l.count <= 0 {
		l.q.mu.Unlock()
		return
	}
	l.count--
	fire := l.count == 0
	l.q.mu.Unlock()
	if fire {
		l.q.wakeAll()
	}
}

// Wait blocks until the latch reaches zero.
func (l *Latch) Wait(ctx context.Context) {
	l.waitTimeout(ctx, 0)
}

// WaitTimeout is Wait with a deadline.
func (l *Latch) WaitTimeout(ctx context.Context, d time.Duration) WaitResult {
	return l.waitTimeout(ctx, d)
}

func (l *Latch) waitTimeout(ctx context.Context, d time.Duration) WaitResult {
	res, waited := parkIf(ctx, &l.q, d, func() bool { return l.count > 0 })
	if !waited {
		return WaitResult{Signaled: true}
	}
	return res
}

// Count returns the latch's current count.
func (l *Latch) Count() int64 {
	l.q.mu.Lock()
	defer l.q.mu.Unlock()
	return l.count
}

// exitBarrier is the count-down latch a joinable Fiber attaches to
// itself, built on the same mutex+cond-style waitQueue as Latch
// specifically to support Join (§4.5 "Exit barrier"). It is ref-counted
// (retain/release) rather than owned by a single back-pointer, because
// the fiber and every fiber currently joining it share it - the classic
// fiber <-> exit_barrier <-> joiner cycle (§9): the barrier is only ever
// read after creation, so the ref count exists purely to document which
// side is still using it, never to free anything Go's GC wouldn't anyway.
type exitBarrier struct {
	done Latch
	refs atomic.Int32
}

// newExitBarrier returns a fresh single-count barrier, held by its
// owning fiber (refs starts at 1).
func newExitBarrier() *exitBarrier {
	b := &exitBarrier{done: Latch{count: 1}}
	b.refs.Store(1)
	return b
}

// retain records an additional holder (a joiner about to wait) and
// returns b for chaining.
func (b *exitBarrier) retain() *exitBarrier {
	b.refs.Add(1)
	return b
}

// release drops a holder's reference once it is done with b.
func (b *exitBarrier) release() {
	b.refs.Add(-1)
}

func (b *exitBarrier) waitTimeout(ctx context.Context, d time.Duration) WaitResult {
	return b.done.WaitTimeout(ctx, d)
}

// countDown completes the barrier. Split from the dying fiber's state
// transition per §4.5: the mutating step (decrementing count, waking
// joiners) must never itself block on lock acquisition, which is exactly
// what Latch.CountDown already guarantees via its own waitQueue spinlock.
func (b *exitBarrier) countDown() {
	b.done.CountDown()
}
