package fiberz

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zoobzio/capitan"
)

// Sentinel errors returned by timed operations. These are ordinary values,
// never panics: per the design, a timed-out wait is a control-flow outcome,
// not a failure.
var (
	// ErrTimedOut is returned by WithTimeout when the deadline elapses
	// before the operation finishes. The wait primitives themselves (Cond,
	// Latch, Event, Semaphore, Oneshot, Fiber.JoinTimeout) report a
	// timeout as WaitResult.TimedOut instead.
	ErrTimedOut = errors.New("fiberz: wait timed out")

	// ErrShutdown names the "runtime is shutting down" condition. No
	// function in this package currently returns it.
	ErrShutdown = errors.New("fiberz: runtime is shutting down")

	// ErrQueueFull names the run-queue-full condition. runQueue.tryPush
	// reports a full ring by returning false rather than this error, and
	// Group.enqueue retries with backoff instead of propagating it, so it
	// never reaches a caller of the public facade, matching the design's
	// "resource exhaustion is not fatal" rule.
	ErrQueueFull = errors.New("fiberz: run queue full")
)

// MisuseSignal is emitted via capitan immediately before a misuse abort, so
// whatever log sink is attached gets one last structured record of which
// invariant was violated before the process dies.
const MisuseSignal capitan.Signal = "fiberz.misuse.fatal"

// abortFunc terminates the process after a misuse is logged. Tests replace
// it with something that records the call instead of exiting, so a misuse
// assertion never crashes the whole test binary.
var abortFunc = func() { os.Exit(2) }

// fatalf reports a programming-error misuse per the design's error model
// (ยง7): these are never recoverable, never returned as an error value, and
// never retried. Calling a fiber-only primitive off-fiber, joining a
// detached fiber, creating a fiber without a group, combining
// LaunchDispatch with ScopeLocal, unlocking an unlocked Mutex, and an
// invalid run-queue or group size all route here.
func fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	capitan.Emit(context.Background(), MisuseSignal, FieldError.Field(msg))
	abortFunc()
	// abortFunc is expected to terminate the goroutine tree; panic as a
	// backstop so control never falls through to the caller, including in
	// tests that stub abortFunc to merely record the call.
	panic(msg)
}

// recoverFromFault converts a panic escaping user fiber code into a
// structured fault record rather than crashing the worker goroutine that
// happened to be running it, the fiber-scoped analogue of wrapping a
// panicking processor's panic as an error value and keeping the
// surrounding loop alive.
func recoverFromFault(f *Fiber) {
	r := recover()
	if r == nil {
		return
	}
	fault := &Fault{
		FiberID: f.ID(),
		Name:    f.name,
		Value:   r,
	}
	capitan.Error(context.Background(), SignalFiberPanicked,
		FieldFiberID.Field(int(fault.FiberID)),
		FieldFiberName.Field(fault.Name),
		FieldError.Field(fmt.Sprint(r)),
	)
	f.fault = fault
}

// Fault describes a panic recovered from a fiber's entry function. Unlike
// misuse, a panicking fiber does not abort the runtime - it only poisons
// that one fiber, which transitions straight to Dead so joiners are not
// left waiting forever.
type Fault struct {
	Value   interface{}
	Name    string
	FiberID uint64
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fiber %q panicked: %v", f.Name, f.Value)
}
