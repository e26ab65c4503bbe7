// Package fiberz implements an M:N user-space fiber runtime: a fixed pool of
// worker goroutines (standing in for the OS threads of the original design)
// multiplexes a very large number of cooperatively-scheduled fibers, each
// with its own call stack and synchronous-looking blocking primitives.
//
// # Why goroutines instead of raw stack switching
//
// The runtime does not hand-roll a stack-switch trampoline. Each Fiber owns
// one dedicated, parked goroutine; suspending a fiber means blocking that
// goroutine on a channel receive, which the Go runtime already does without
// unwinding the call stack. A Worker is the thing that "jumps" into a fiber
// by handing it a token over that channel and waiting for it to hand control
// back. This preserves every suspension-point and context-switch-identity
// invariant the design calls for, using primitives the language already
// gives us instead of assembly.
//
// # Core pieces
//
//   - Fiber: the unit of cooperative execution (fiber.go, fls.go).
//   - Group: the smallest self-contained scheduler - one bounded run queue,
//     one wake-mask engine, a set of workers (group.go, runqueue.go).
//   - Worker: the acquire/spin/steal/sleep loop bound to one group (worker.go).
//   - Timer: one dedicated per-group timer goroutine owning a single
//     min-heap of deadlines (timer.go); there are no per-worker timer
//     inboxes.
//   - Waitable: the intrusive wait-queue every blocking primitive is built
//     from (waitable.go), and its concrete primitives: Mutex, Cond, Latch,
//     Event, Oneshot, Semaphore.
//   - Runtime: topology-aware bootstrap wiring groups, workers and timer
//     goroutines together and stealing between them (runtime.go, topology.go).
//
// # Observability
//
// Every lifecycle transition worth knowing about - a group starting, a
// worker going to sleep, a run queue overflowing, a timer firing - is both
// logged as a capitan signal (signals.go) and exposed as metricz
// counters/gauges and tracez spans (observability.go). Callers who want
// programmatic hooks instead of (or in addition to) log lines can attach
// hookz listeners for fiber exit and timer firing. Only the hookz emission
// is skipped when no listener is registered; the metricz updates and
// capitan signals run on every such transition.
//
// # Error handling
//
// Misuse - joining a detached fiber, calling a fiber-only primitive from
// outside a fiber, creating a fiber without a group - is a programming
// bug and aborts the process with a descriptive message (error.go). Run
// queue overflow is not fatal: ready retries with a short sleep and warns
// periodically. Timed-out waits are an ordinary return value, never a panic.
package fiberz
