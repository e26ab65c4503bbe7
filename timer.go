package fiberz

import (
	"container/heap"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// timerEntry is one armed deadline in a group's timer heap.
type timerEntry struct {
	id       uint64
	deadline time.Time
	period   time.Duration
	fn       func(context.Context)
	canceled atomic.Bool
	index    int
}

// timerHeap is a container/heap.Interface min-heap ordered by deadline.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry) //nolint:forcetypeassert
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Timer is a handle to an armed deadline, returned by Group.AfterFunc and
// Group.Every.
type Timer struct {
	entry *timerEntry
	gt    *groupTimer
}

// Cancel prevents a pending or future firing of this timer. Canceling an
// already-fired one-shot timer, or a periodic timer after its last fire,
// is a harmless no-op.
func (t *Timer) Cancel() {
	t.entry.canceled.Store(true)
	t.gt.cancel(t.entry)
}

// groupTimer is the design's per-group dedicated timer thread: one
// goroutine owning a min-heap of deadlines, woken either by a new
// earlier-than-current arm or by its own sleep elapsing. Firing a timer
// spawns its callback as an ordinary fiber in the owning group rather
// than running it inline on the timer goroutine, so a slow or
// misbehaving callback can never stall other timers.
//
// The design additionally calls for per-worker inboxes alongside the
// shared heap, to let a timer fire on the worker that armed it. fiberz
// simplifies this to one heap per group and lets the group's normal
// scheduling (including work stealing) place the callback fiber - see
// DESIGN.md for the tradeoff.
type groupTimer struct {
	group *Group

	mu   Spinlock
	heap timerHeap

	wake   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

func newGroupTimer(g *Group) *groupTimer {
	return &groupTimer{
		group:  g,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (t *groupTimer) start(ctx context.Context) {
	go t.run(ctx)
}

func (t *groupTimer) stop() {
	close(t.stopCh)
	<-t.doneCh
}

// arm schedules fn to run at deadline, repeating every period if period
// > 0.
func (t *groupTimer) arm(deadline time.Time, period time.Duration, fn func(context.Context)) *Timer {
	e := &timerEntry{id: fiberIDs.alloc(), deadline: deadline, period: period, fn: fn}
	t.mu.Lock()
	heap.Push(&t.heap, e)
	isEarliest := t.heap[0] == e
	t.mu.Unlock()

	capitan.Info(context.Background(), SignalTimerArmed,
		FieldTimerID.Field(int(e.id)), FieldTimerPeriodic.Field(period > 0))

	if isEarliest {
		select {
		case t.wake <- struct{}{}:
		default:
		}
	}
	return &Timer{entry: e, gt: t}
}

func (t *groupTimer) cancel(e *timerEntry) {
	capitan.Info(context.Background(), SignalTimerCanceled, FieldTimerID.Field(int(e.id)))
}

func (t *groupTimer) run(ctx context.Context) {
	defer close(t.doneCh)
	clk := t.group.rt.clock
	for {
		t.mu.Lock()
		var waitCh <-chan time.Time
		if len(t.heap) > 0 {
			d := t.heap[0].deadline.Sub(clk.Now())
			if d < 0 {
				d = 0
			}
			waitCh = clk.After(d)
		}
		t.mu.Unlock()

		if waitCh == nil {
			select {
			case <-t.wake:
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-waitCh:
			t.fireDue(ctx, clk)
		case <-t.wake:
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (t *groupTimer) fireDue(ctx context.Context, clk clockz.Clock) {
	now := clk.Now()
	var due []*timerEntry
	t.mu.Lock()
	for len(t.heap) > 0 && !t.heap[0].deadline.After(now) {
		e, _ := heap.Pop(&t.heap).(*timerEntry)
		due = append(due, e)
	}
	count := len(t.heap)
	t.mu.Unlock()

	obs := t.group.rt.observe()
	obs.metrics.Gauge(MetricTimersOutstanding).Set(float64(count))

	for _, e := range due {
		if e.canceled.Load() {
			continue
		}
		obs.metrics.Counter(MetricTimersFired).Inc()
		capitan.Info(ctx, SignalTimerFired, FieldTimerID.Field(int(e.id)))

		fn := e.fn
		id := e.id
		periodic := e.period > 0
		t.group.rt.Spawn(ctx, t.group, fmt.Sprintf("timer-%d", id), func(fctx context.Context) {
			span := obs.tracer.StartSpan(fctx, SpanTimerCallback)
			defer span.Finish()
			fn(fctx)
			if obs.hooks.ListenerCount(HookTimerFired) > 0 {
				_ = obs.hooks.Emit(fctx, HookTimerFired, TimerFiredEvent{TimerID: id, Periodic: periodic}) //nolint:errcheck
			}
		})

		if e.period > 0 && !e.canceled.Load() {
			e.deadline = now.Add(e.period)
			t.mu.Lock()
			heap.Push(&t.heap, e)
			t.mu.Unlock()
		}
	}
}

// AfterFunc arms fn to run once, after d, as a new fiber in this group.
func (g *Group) AfterFunc(d time.Duration, fn func(context.Context)) *Timer {
	return g.timer.arm(g.rt.clock.Now().Add(d), 0, fn)
}

// Every arms fn to run repeatedly, every d, as a new fiber in this group
// each time, until the returned Timer is canceled.
func (g *Group) Every(d time.Duration, fn func(context.Context)) *Timer {
	return g.timer.arm(g.rt.clock.Now().Add(d), d, fn)
}
