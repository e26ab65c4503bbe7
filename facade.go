package fiberz

import (
	"context"
	"time"
)

// Yield gives up the calling fiber's turn without blocking on anything:
// it re-readies the fiber and parks, letting the worker run something
// else in the meantime. Implemented with Worker.postSwitch rather than a
// plain "ready then suspend" so the re-enqueue happens only once control
// has actually fallen back out to the scheduling loop - the same
// ordering the design's yield gives by running its continuation on the
// master fiber after the switch (§4.4).
func Yield(ctx context.Context) {
	f := mustCurrent(ctx)
	w := f.Worker()
	w.setPostSwitch(func() { f.ready() })
	f.markWaiting()
	f.suspend()
}

// SleepFor parks the calling fiber for at least d before it becomes
// ready again. d <= 0 behaves like Yield.
func SleepFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		Yield(ctx)
		return
	}
	f := mustCurrent(ctx)
	clk := f.group.runtime().Clock()
	after := clk.After(d)
	go func() {
		<-after
		f.ready()
	}()
	f.markWaiting()
	f.suspend()
}

// SwitchTo directly hands control to target without going back through
// the run queue, then arranges for the calling fiber to be re-readied
// the moment target next wakes. This is the Go analogue of the design's
// switch_to (§4.7): a Dispatch launch policy carried by Fiber.switchTarget,
// paired with a resume_proc stashed on target so the handoff is
// completed from target's own goroutine on its very next resume.
func SwitchTo(ctx context.Context, target *Fiber) {
	f := mustCurrent(ctx)
	if target == f {
		fatalf("fiberz: SwitchTo target must not be the calling fiber")
	}
	target.setResumeProc(func() { f.ready() })
	f.requestSwitchTo(target)
	f.markWaiting()
	f.suspend()
}

// GroupIndex returns the scheduling group index of the calling fiber.
func GroupIndex(ctx context.Context) int {
	return mustCurrent(ctx).group.index
}

// FiberSpec describes one fiber to create via BatchStartFibers.
type FiberSpec struct {
	Attrs Attributes
	Entry func(context.Context)
}

// BatchStartFibers creates every fiber in specs and, grouping them by
// target group, enqueues each group's share as a single all-or-nothing
// reservation (§6's `batch_start_fibers`, §4.3's `batch_push`), falling
// back to the ordinary per-fiber retry-with-backoff enqueue for any group
// whose share does not fit in one reservation. LaunchDispatch is not
// meaningful for a batch of fibers - switching the caller into more than
// one of them at once is undefined - so any spec requesting it is
// rejected as misuse before any fiber is created.
func BatchStartFibers(ctx context.Context, specs []FiberSpec) []*Fiber {
	for _, spec := range specs {
		if spec.Attrs.LaunchPolicy == LaunchDispatch {
			fatalf("fiberz: BatchStartFibers: LaunchDispatch is not valid in a batch")
		}
	}

	fibers := make([]*Fiber, len(specs))
	byGroup := make(map[*Group][]*Fiber)
	for i, spec := range specs {
		f := newFiberNoEnqueue(ctx, spec.Attrs, spec.Entry)
		fibers[i] = f
		byGroup[f.group] = append(byGroup[f.group], f)
	}
	for g, fs := range byGroup {
		g.enqueueBatch(fs)
	}
	return fibers
}
