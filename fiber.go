package fiberz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
)

// stateBox is a small typed wrapper around atomic.Int32 so fiberState can
// be read/written across goroutines without every call site casting.
type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) load() fiberState      { return fiberState(b.v.Load()) }
func (b *stateBox) store(s fiberState)    { b.v.Store(int32(s)) }

// fiberState mirrors the external interface's fiber::state enum.
type fiberState int32

const (
	stateReady fiberState = iota
	stateRunning
	stateWaiting
	stateDead
)

func (s fiberState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateRunning:
		return "running"
	case stateWaiting:
		return "waiting"
	case stateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// LaunchPolicy selects how a newly created fiber enters scheduling,
// matching §6's `launch_policy: Post|Dispatch`.
type LaunchPolicy int

const (
	// LaunchPost enqueues the new fiber onto its group's run queue. The
	// zero value, so every existing Attributes literal keeps this
	// behavior without spelling it out.
	LaunchPost LaunchPolicy = iota
	// LaunchDispatch switches the calling fiber directly to the new one
	// via SwitchTo instead of going through the run queue, exactly as
	// §4.7's switch_to does for an explicit target.
	LaunchDispatch
)

// Attributes configures a fiber at creation, matching the design's
// fiber_attributes (name, stack size is a no-op here since fibers are
// goroutines, scheduling group affinity).
type Attributes struct {
	Name  string
	Group *Group

	// LaunchPolicy selects Post (default) or Dispatch launch behavior.
	LaunchPolicy LaunchPolicy

	// ScopeLocal pins the fiber to its starting group: a true value sets
	// the run queue's instealable bit (§3 `scheduling_group_local`), so
	// steal() never hands this fiber to another group's worker.
	ScopeLocal bool

	// SystemFiber marks the fiber as belonging to the runtime's own
	// small-stack class (§3 `system_fiber`) rather than user code, for
	// accounting/metrics parity. Carried as metadata only - Go fibers are
	// goroutines, so there is no guard page or stack size to allocate
	// differently.
	SystemFiber bool
}

// Fiber is a single stackful user-space coroutine. Unlike the original
// design's raw make_context/jump_context, a Fiber here is one dedicated
// goroutine paired with two unbuffered channels that stand in for the
// "state save area": suspending a fiber means blocking that goroutine on
// a channel receive, which is exactly the property raw stack switching
// gives for free in the source design, and which Go already gives for
// free across a channel receive. See doc.go for the full rationale.
type Fiber struct {
	id    uint64
	name  string
	group *Group
	fault *Fault

	scopeLocal  bool
	systemFiber bool

	resumeCh chan struct{}
	switchCh chan struct{}

	state stateBox

	fls flsTable

	// switchTarget, resumeProc and worker are only ever touched by the
	// fiber's own goroutine or by the single worker currently resuming
	// it - never concurrently - so they need no lock of their own.
	switchTarget *Fiber
	resumeProc   func()
	worker       *Worker

	entry func(context.Context)

	// joinMu guards joinable and the creation/release of exit against
	// concurrent Join/Detach calls; exit itself is never mutated after
	// creation, only retained/released.
	joinMu   sync.Mutex
	joinable bool
	exit     *exitBarrier
}

// NewFiber creates a fiber bound to attrs.Group (required: a nil Group is
// misuse and aborts) and launches it per attrs.LaunchPolicy: Post (default)
// enqueues it ready to run, Dispatch immediately switches the calling
// fiber to it (§4.7's switch_to; requires ctx to resolve to a running
// fiber). ctx.Done() is never observed automatically - a fiber that
// should respond to cancellation must check Current(ctx)'s context
// itself and inspect ctx.Err().
//
// Dispatch combined with ScopeLocal is rejected as misuse at call time
// (Open Question #3): switching the current worker directly into a fiber
// pinned to a possibly different group is not well-defined.
func NewFiber(ctx context.Context, attrs Attributes, entry func(context.Context)) *Fiber {
	if attrs.LaunchPolicy == LaunchDispatch && attrs.ScopeLocal {
		fatalf("fiberz: NewFiber: LaunchDispatch cannot be combined with ScopeLocal")
	}
	f := newFiberNoEnqueue(ctx, attrs, entry)
	switch attrs.LaunchPolicy {
	case LaunchDispatch:
		SwitchTo(ctx, f)
	default:
		f.group.enqueueNew(f)
	}
	return f
}

// newFiberNoEnqueue builds and starts f's goroutine without placing it on
// any run queue, so callers (NewFiber, BatchStartFibers) can choose how
// and when it becomes observable to workers.
func newFiberNoEnqueue(ctx context.Context, attrs Attributes, entry func(context.Context)) *Fiber {
	if attrs.Group == nil {
		fatalf("fiberz: NewFiber requires attrs.Group")
	}
	f := &Fiber{
		id:          fiberIDs.alloc(),
		name:        attrs.Name,
		group:       attrs.Group,
		scopeLocal:  attrs.ScopeLocal,
		systemFiber: attrs.SystemFiber,
		joinable:    true,
		exit:        newExitBarrier(),
		resumeCh:    make(chan struct{}),
		switchCh:    make(chan struct{}),
		entry:       entry,
	}
	if f.name == "" {
		f.name = fmt.Sprintf("fiber-%d", f.id)
	}
	f.state.store(stateReady)

	fiberCtx := withFiber(ctx, f)
	go f.loop(fiberCtx)

	f.group.runtime().observe().metrics.Counter(MetricFibersStarted).Inc()
	capitan.Info(ctx, SignalFiberStarted,
		FieldFiberID.Field(int(f.id)),
		FieldFiberName.Field(f.name),
		FieldGroupIndex.Field(f.group.index),
		FieldScopeLocal.Field(f.scopeLocal),
		FieldSystemFiber.Field(f.systemFiber),
	)
	return f
}

// ID returns the fiber's monotonic debug identifier.
func (f *Fiber) ID() uint64 { return f.id }

// Name returns the fiber's human-readable name.
func (f *Fiber) Name() string { return f.name }

// State returns the fiber's current lifecycle state.
func (f *Fiber) State() fiberState { return f.state.load() }

// Fault returns the panic captured from this fiber's entry function, if
// any. Only meaningful once State() is Dead.
func (f *Fiber) Fault() *Fault { return f.fault }

// ScopeLocal reports whether this fiber was started with ScopeLocal set
// (§3 `scheduling_group_local`): true means it will never be handed to a
// worker outside its own group by steal().
func (f *Fiber) ScopeLocal() bool { return f.scopeLocal }

// SystemFiber reports whether this fiber was started with SystemFiber set
// (§3 `system_fiber`).
func (f *Fiber) SystemFiber() bool { return f.systemFiber }

// loop is the body of the fiber's dedicated goroutine. It blocks waiting
// to be resumed, runs entry exactly once, recovers any panic into a
// Fault, and finally hands control back permanently.
//
// Per §4.1's fiber_proc exit path: state is set to Dead and the exit
// barrier's count-down completed from this, the dying fiber's, own tail -
// both run before control is handed back over switchCh - so Join() never
// observes the barrier released before State() reports Dead.
func (f *Fiber) loop(ctx context.Context) {
	<-f.resumeCh
	if p := f.takeResumeProc(); p != nil {
		p()
	}
	func() {
		defer recoverFromFault(f)
		f.entry(ctx)
	}()
	f.state.store(stateDead)
	f.exit.countDown()
	f.switchCh <- struct{}{}
}

// suspend parks the calling fiber: it hands control back to whichever
// worker is resuming it and blocks until resumed again. Must only be
// called from the fiber's own goroutine while it is Running.
func (f *Fiber) suspend() {
	f.switchCh <- struct{}{}
	<-f.resumeCh
	if p := f.takeResumeProc(); p != nil {
		p()
	}
}

// setResumeProc attaches a single-slot continuation that runs on this
// fiber's own goroutine immediately after its next resume, before
// control returns to whatever suspended it. Mirrors the design's
// resume_proc mechanism (§4.4): used to finish a state transition that
// only makes sense once the fiber is definitely about to run again, e.g.
// SwitchTo re-readying the fiber that switched away to this one.
func (f *Fiber) setResumeProc(p func()) {
	f.resumeProc = p
}

func (f *Fiber) takeResumeProc() func() {
	p := f.resumeProc
	f.resumeProc = nil
	return p
}

// requestSwitchTo records that, once this fiber next parks, the worker
// should resume target directly rather than pulling from the run queue.
// This is the Go analogue of switch_to's Dispatch launch policy (§4.7).
func (f *Fiber) requestSwitchTo(target *Fiber) {
	f.switchTarget = target
}

func (f *Fiber) takeSwitchTarget() *Fiber {
	t := f.switchTarget
	f.switchTarget = nil
	return t
}

// ready transitions the fiber back to Ready and pushes it onto its
// group's run queue. Safe to call from any goroutine.
func (f *Fiber) ready() {
	f.state.store(stateReady)
	f.group.enqueue(f)
}

// markWaiting transitions the fiber to Waiting. Called by the wait
// primitives (mutex.go, cond.go, ...) just before suspend().
func (f *Fiber) markWaiting() {
	f.state.store(stateWaiting)
}

// Worker returns the worker currently resuming this fiber. Only valid
// while the fiber is Running - i.e. called from the fiber's own
// goroutine on its own behalf, never from outside.
func (f *Fiber) Worker() *Worker { return f.worker }

// Group returns the scheduling group this fiber belongs to.
func (f *Fiber) Group() *Group { return f.group }

// Join blocks the calling fiber until f's entry function has fully
// returned (Testable Property 11), observing every write f made before
// exiting. Calling Join on a fiber that has already been Detach-ed is
// misuse and aborts, matching §7's "destroying/joining a detached fiber"
// category. Must be called from inside a fiber.
func (f *Fiber) Join(ctx context.Context) {
	f.JoinTimeout(ctx, 0)
}

// JoinTimeout is Join with a deadline. A timeout here ends only the wait,
// exactly as §5's cancellation model describes for every timed wait: f
// keeps running, and a later Join still returns once it actually exits
// (Scenario F).
func (f *Fiber) JoinTimeout(ctx context.Context, d time.Duration) WaitResult {
	b := f.retainExit()
	defer b.release()
	return b.waitTimeout(ctx, d)
}

func (f *Fiber) retainExit() *exitBarrier {
	f.joinMu.Lock()
	defer f.joinMu.Unlock()
	if !f.joinable {
		fatalf("fiberz: Join called on a detached fiber")
	}
	return f.exit.retain()
}

// Detach releases this fiber's exit barrier and makes it non-joinable.
// Idempotent: detaching an already-detached fiber is a no-op. After
// Detach, calling Join is misuse.
func (f *Fiber) Detach() {
	f.joinMu.Lock()
	if !f.joinable {
		f.joinMu.Unlock()
		return
	}
	f.joinable = false
	b := f.exit
	f.joinMu.Unlock()
	b.release()
}
