package fiberz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// WaitResult disambiguates why a timed wait returned, matching Open
// Question #1's resolution in SPEC_FULL.md: fiber_interrupt is out of
// core scope, so every timed wait primitive (cond, latch, event,
// oneshot) returns one of these instead of throwing.
type WaitResult struct {
	Signaled bool
	TimedOut bool
}

// waitNode is one fiber's entry in a waitQueue. woken is the single CAS
// gate that arbitrates between a normal wake and a timeout firing at
// (almost) the same instant - whichever wins performs the actual
// f.ready() call, the loser is a no-op.
type waitNode struct {
	fiber         *Fiber
	woken         atomic.Bool
	result        WaitResult
	cancelTimeout chan struct{}
	closeOnce     sync.Once
}

func newWaitNode(f *Fiber) *waitNode {
	return &waitNode{fiber: f, cancelTimeout: make(chan struct{})}
}

func (n *waitNode) cancelWatcher() {
	n.closeOnce.Do(func() { close(n.cancelTimeout) })
}

// waitQueue is the intrusive FIFO wait list underlying every blocking
// primitive (mutex.go, cond.go, latch.go, event.go, oneshot.go) - the
// design's wait-queue abstraction (§4.3), reimplemented as a
// Spinlock-guarded slice since fiberz has no raw intrusive linked-list
// hook on Fiber.
type waitQueue struct {
	mu      Spinlock
	waiters []*waitNode
}

func (q *waitQueue) enqueue(n *waitNode) {
	q.mu.Lock()
	q.waiters = append(q.waiters, n)
	q.mu.Unlock()
}

func (q *waitQueue) remove(n *waitNode) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, w := range q.waiters {
		if w == n {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// wakeOne wakes the oldest waiter that has not already been woken by a
// timeout, if any. Returns true if a waiter was actually woken.
func (q *waitQueue) wakeOne() bool {
	for {
		q.mu.Lock()
		if len(q.waiters) == 0 {
			q.mu.Unlock()
			return false
		}
		n := q.waiters[0]
		q.waiters = q.waiters[1:]
		q.mu.Unlock()
		if n.woken.CompareAndSwap(false, true) {
			n.result = WaitResult{Signaled: true}
			n.cancelWatcher()
			n.fiber.ready()
			return true
		}
	}
}

// wakeAll wakes every waiter not already claimed by a timeout, returning
// how many were actually woken.
func (q *waitQueue) wakeAll() int {
	q.mu.Lock()
	all := q.waiters
	q.waiters = nil
	q.mu.Unlock()

	woken := 0
	for _, n := range all {
		if n.woken.CompareAndSwap(false, true) {
			n.result = WaitResult{Signaled: true}
			n.cancelWatcher()
			n.fiber.ready()
			woken++
		}
	}
	return woken
}

func (q *waitQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}

// armTimeout starts a watcher goroutine that wakes n with TimedOut
// unless n is woken some other way first. No-op when timeout <= 0.
func armTimeout(q *waitQueue, n *waitNode, f *Fiber, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	clk := f.group.runtime().Clock()
	after := clk.After(timeout)
	go func() {
		select {
		case <-after:
			if n.woken.CompareAndSwap(false, true) {
				q.remove(n)
				n.result = WaitResult{TimedOut: true}
				n.fiber.ready()
			}
		case <-n.cancelTimeout:
		}
	}()
}

// suspendOn marks the calling fiber Waiting and parks it until n is
// woken, returning the eventual result. Splitting this out from
// enqueueing lets callers (Cond.Wait) interleave other work - like
// releasing an external mutex - between "now visibly waiting" and
// "actually suspended," which is what gives condition variables their
// required atomicity against a concurrent Signal.
func suspendOn(f *Fiber, n *waitNode) WaitResult {
	f.markWaiting()
	f.suspend()
	return n.result
}

// park suspends the calling fiber on q until another fiber wakes it, or,
// if timeout > 0, until the deadline passes first. The caller must have
// already released any external lock it held before calling park -
// exactly like the external condition_variable's contract.
func park(ctx context.Context, q *waitQueue, timeout time.Duration) WaitResult {
	f := mustCurrent(ctx)
	n := newWaitNode(f)
	q.enqueue(n)
	armTimeout(q, n, f, timeout)
	return suspendOn(f, n)
}

// parkIf atomically evaluates mustWait while holding q's internal lock
// and, only if it still reports true, enqueues the calling fiber. This
// closes the classic check-then-park race: mustWait is free to mutate
// state shared with the waking side (e.g. a Mutex's locked flag), since
// that state is protected by the very same lock as the wait queue it
// feeds. Returns ok=false when mustWait returned false without parking.
func parkIf(ctx context.Context, q *waitQueue, timeout time.Duration, mustWait func() bool) (WaitResult, bool) {
	f := mustCurrent(ctx)
	n := newWaitNode(f)

	q.mu.Lock()
	if !mustWait() {
		q.mu.Unlock()
		return WaitResult{}, false
	}
	q.waiters = append(q.waiters, n)
	q.mu.Unlock()

	armTimeout(q, n, f, timeout)
	return suspendOn(f, n), true
}
