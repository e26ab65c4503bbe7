package fiberz

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/zoobzio/capitan"
)

const (
	workerSpinLimit        = 64
	workerStealRetryPeriod = 2 * time.Millisecond
)

// Worker is the Go analogue of the design's scheduling thread: it
// repeatedly acquires a ready fiber and resumes it. A Worker never has
// its own stack to switch to/from - it drives the handoff by sending on
// a fiber's resumeCh and waiting on its switchCh, per the model
// documented in doc.go.
type Worker struct {
	group *Group
	index int

	// current, postSwitch are only ever written by this worker's own
	// run loop or by the fiber currently resumed on it - never
	// concurrently with anything else.
	current    *Fiber
	postSwitch func()

	stopCh chan struct{}
	doneCh chan struct{}
}

func newWorker(g *Group, idx int) *Worker {
	return &Worker{
		group:  g,
		index:  idx,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Current returns the fiber this worker is presently resuming, or nil.
func (w *Worker) Current() *Fiber { return w.current }

// setPostSwitch stashes a continuation to run once control falls out of
// the switch-target chain back to the scheduling loop - the Go analogue
// of the design's "run on the master fiber after the next switch" idiom
// (§4.1 halt, §4.4 yield).
func (w *Worker) setPostSwitch(p func()) { w.postSwitch = p }

func (w *Worker) takePostSwitch() func() {
	p := w.postSwitch
	w.postSwitch = nil
	return p
}

func (w *Worker) start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Worker) stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		f, ok := w.acquireFiber(ctx)
		if !ok {
			return
		}
		for f != nil {
			w.resumeOne(ctx, f)
			f = f.takeSwitchTarget()
		}
		if p := w.takePostSwitch(); p != nil {
			p()
		}
	}
}

// acquireFiber blocks until a ready fiber is available, this worker's
// group is stopped, or ctx is canceled. It first checks the local queue,
// then attempts to steal from sibling groups, then spins briefly before
// sleeping via the group's wake mask.
func (w *Worker) acquireFiber(ctx context.Context) (*Fiber, bool) {
	spins := 0
	for {
		select {
		case <-w.stopCh:
			return nil, false
		case <-ctx.Done():
			return nil, false
		default:
		}
		if f, ok := w.group.tryLocalPop(); ok {
			return f, true
		}
		if f, ok := w.group.trySteal(); ok {
			return f, true
		}
		if spins < workerSpinLimit {
			spins++
			runtime.Gosched()
			continue
		}
		if !w.sleep(ctx) {
			return nil, false
		}
		spins = 0
	}
}

// sleep parks the worker until woken by a new enqueue, a steal-retry
// timeout, a stop request, or context cancellation. Returns false only
// when the caller should give up entirely (stop/cancel).
func (w *Worker) sleep(ctx context.Context) bool {
	obs := w.group.rt.observe()
	rt := w.group.rt
	rt.sleepingWorkers.Add(1)
	obs.metrics.Gauge(MetricWorkersSleeping).Set(float64(rt.sleepingWorkers.Load()))
	w.group.wake.markAsleep(w.index)
	capitan.Info(ctx, SignalWorkerSleeping, FieldGroupIndex.Field(w.group.index), FieldWorkerIndex.Field(w.index))

	timer := rt.clock.After(workerStealRetryPeriod)
	var result bool
	select {
	case <-w.group.wake.waitChannel(w.index):
		result = true
	case <-timer:
		result = true
	case <-w.stopCh:
		result = false
	case <-ctx.Done():
		result = false
	}
	w.group.wake.markAwake(w.index)
	rt.sleepingWorkers.Add(-1)
	obs.metrics.Gauge(MetricWorkersSleeping).Set(float64(rt.sleepingWorkers.Load()))
	capitan.Info(ctx, SignalWorkerWoke, FieldGroupIndex.Field(w.group.index), FieldWorkerIndex.Field(w.index))
	return result
}

// resumeOne hands control to f until it parks or dies.
func (w *Worker) resumeOne(ctx context.Context, f *Fiber) {
	w.current = f
	f.worker = w
	f.state.store(stateRunning)

	span := w.group.rt.observe().tracer.StartSpan(ctx, SpanFiberResume)
	span.SetTag(TagFiberID, fmt.Sprint(f.id))
	span.SetTag(TagWorkerIdx, fmt.Sprint(w.index))

	f.resumeCh <- struct{}{}
	<-f.switchCh

	span.Finish()
	w.current = nil

	if f.state.load() == stateDead {
		w.group.rt.observe().emitFiberExited(ctx, f)
		f.fls.destroyAll()
		capitan.Info(ctx, SignalFiberExited, FieldFiberID.Field(int(f.id)), FieldFiberName.Field(f.name))
	}
}
