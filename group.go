package fiberz

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Group is a scheduling group: a bounded run queue, a wake mask for its
// sleeping workers, and the set of Workers that drain it. Corresponds
// directly to the design's scheduling_group (§3).
type Group struct {
	index   int
	rt      *Runtime
	queue   *runQueue
	workers []*Worker
	wake    *wakeMask
	timer   *groupTimer

	// siblings lists every group in the runtime, including this one, so
	// workers can steal from a sibling's queue. Set once by the runtime
	// after every group exists.
	siblings []*Group
}

func newGroup(rt *Runtime, index, queueCap, numWorkers int) *Group {
	g := &Group{
		index: index,
		rt:    rt,
		queue: newRunQueue(queueCap),
		wake:  newWakeMask(numWorkers),
	}
	g.timer = newGroupTimer(g)
	g.workers = make([]*Worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		g.workers[i] = newWorker(g, i)
	}
	return g
}

func (g *Group) runtime() *Runtime { return g.rt }

// Index returns this group's position in the runtime's group list.
func (g *Group) Index() int { return g.index }

// Runtime returns the runtime that owns this group, so code holding only
// a *Group (e.g. a fiber looking up its own group via GroupIndex/Group)
// can still reach the shared clock and observability bundle.
func (g *Group) Runtime() *Runtime { return g.rt }

func (g *Group) start(ctx context.Context) {
	capitan.Info(ctx, SignalGroupStarted, FieldGroupIndex.Field(g.index), FieldGroupSize.Field(len(g.workers)))
	g.timer.start(ctx)
	for _, w := range g.workers {
		w.start(ctx)
	}
}

func (g *Group) stop() {
	for _, w := range g.workers {
		w.stop()
	}
	g.timer.stop()
	capitan.Info(context.Background(), SignalGroupStopped, FieldGroupIndex.Field(g.index))
}

// enqueueNew pushes a brand new fiber onto this group's queue, same path
// as enqueue - kept as a distinct name only to read clearly at the
// NewFiber call site.
func (g *Group) enqueueNew(f *Fiber) { g.enqueue(f) }

// enqueue pushes a ready fiber onto this group's run queue, retrying with
// a growing sleep when the bounded queue is momentarily full. Per §7,
// run-queue exhaustion is non-fatal resource exhaustion, not misuse: it
// is handled with retry-with-backoff, never by growing the queue or
// dropping the fiber.
func (g *Group) enqueue(f *Fiber) {
	const warnAfter = 5 * time.Second
	policy := newBackoffPolicy(100*time.Microsecond, 10*time.Millisecond)
	obs := g.rt.observe()
	var waited time.Duration
	nextWarn := warnAfter

	for attempt := 0; ; attempt++ {
		if g.queue.tryPush(f, f.scopeLocal) {
			obs.metrics.Gauge(MetricRunQueueDepth).Set(float64(g.queue.len()))
			g.wake.wakeOne()
			return
		}
		obs.metrics.Counter(MetricRunQueuePushFail).Inc()
		backoff := policy.next(attempt)
		clk := g.rt.clock
		<-clk.After(backoff)
		waited += backoff
		if waited >= nextWarn {
			capitan.Warn(context.Background(), SignalRunQueueOverflow,
				FieldGroupIndex.Field(g.index),
				FieldQueueCapacity.Field(g.queue.cap()),
				FieldFiberID.Field(int(f.id)),
			)
			nextWarn += warnAfter
		}
	}
}

// tryLocalPop attempts to take a fiber from this group's own queue.
func (g *Group) tryLocalPop() (*Fiber, bool) {
	f, ok := g.queue.tryPop()
	if ok {
		g.rt.observe().metrics.Gauge(MetricRunQueueDepth).Set(float64(g.queue.len()))
	}
	return f, ok
}

// trySteal attempts to take one fiber from every sibling group in turn,
// skipping itself. Implements §3's work-stealing between scheduling
// groups. Uses queue.steal(), not tryPop, so a fiber pushed with
// scopeLocal set (§4.8's scheduling_group_local) is never observed
// running on a worker outside its own group (Testable Property 7).
func (g *Group) trySteal() (*Fiber, bool) {
	obs := g.rt.observe()
	for _, victim := range g.siblings {
		if victim == g {
			continue
		}
		obs.metrics.Counter(MetricStealsAttempted).Inc()
		if f, ok := victim.queue.steal(); ok {
			obs.metrics.Counter(MetricStealsWon).Inc()
			capitan.Info(context.Background(), SignalWorkerStole,
				FieldGroupIndex.Field(g.index), FieldVictimGroup.Field(victim.index))
			return f, true
		}
	}
	return nil, false
}

// enqueueBatch pushes fs onto this group's queue as a single all-or-nothing
// reservation per §4.3's batch_push, falling back to the ordinary
// per-fiber retry-with-backoff path (enqueue) when the batch does not fit
// in one reservation.
func (g *Group) enqueueBatch(fs []*Fiber) {
	if len(fs) == 0 {
		return
	}
	instealable := make([]bool, len(fs))
	for i, f := range fs {
		instealable[i] = f.scopeLocal
	}
	if g.queue.tryBatchPush(fs, instealable) {
		g.rt.observe().metrics.Gauge(MetricRunQueueDepth).Set(float64(g.queue.len()))
		for range fs {
			g.wake.wakeOne()
		}
		return
	}
	for _, f := range fs {
		g.enqueue(f)
	}
}
