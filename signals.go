package fiberz

import "github.com/zoobzio/capitan"

// Signal constants for fiberz lifecycle events.
// Signals follow the pattern: <component>.<event>.
const (
	// Runtime signals.
	SignalRuntimeStarting capitan.Signal = "runtime.starting"
	SignalRuntimeStarted  capitan.Signal = "runtime.started"
	SignalRuntimeStopping capitan.Signal = "runtime.stopping"
	SignalRuntimeStopped  capitan.Signal = "runtime.stopped"

	// Group signals.
	SignalGroupStarted capitan.Signal = "group.started"
	SignalGroupStopped capitan.Signal = "group.stopped"

	// Worker signals.
	SignalWorkerSpinning capitan.Signal = "worker.spinning"
	SignalWorkerSleeping capitan.Signal = "worker.sleeping"
	SignalWorkerWoke     capitan.Signal = "worker.woke"
	SignalWorkerStealing capitan.Signal = "worker.stealing"
	SignalWorkerStole    capitan.Signal = "worker.stole"

	// Run queue signals.
	SignalRunQueueOverflow capitan.Signal = "runqueue.overflow"

	// Fiber lifecycle signals.
	SignalFiberStarted  capitan.Signal = "fiber.started"
	SignalFiberExited   capitan.Signal = "fiber.exited"
	SignalFiberPanicked capitan.Signal = "fiber.panicked"

	// Timer signals.
	SignalTimerArmed    capitan.Signal = "timer.armed"
	SignalTimerFired    capitan.Signal = "timer.fired"
	SignalTimerCanceled capitan.Signal = "timer.canceled"

	// Resilience helper signals (retry/circuit breaker/rate limiter).
	SignalRetryExhausted    capitan.Signal = "retry.exhausted"
	SignalCircuitOpened     capitan.Signal = "circuitbreaker.opened"
	SignalCircuitClosed     capitan.Signal = "circuitbreaker.closed"
	SignalCircuitHalfOpened capitan.Signal = "circuitbreaker.half_opened"
)

// Common field keys using capitan primitive types. All keys use primitive
// types so no event payload ever needs a custom serialization path.
var (
	FieldError     = capitan.NewStringKey("error")
	FieldTimestamp = capitan.NewFloat64Key("timestamp")

	// Group/worker fields.
	FieldGroupIndex  = capitan.NewIntKey("group_index")
	FieldGroupSize   = capitan.NewIntKey("group_size")
	FieldWorkerIndex = capitan.NewIntKey("worker_index")
	FieldVictimGroup = capitan.NewIntKey("victim_group")

	// Fiber fields.
	FieldFiberID     = capitan.NewIntKey("fiber_id")
	FieldFiberName   = capitan.NewStringKey("fiber_name")
	FieldScopeLocal  = capitan.NewBoolKey("scope_local")
	FieldSystemFiber = capitan.NewBoolKey("system_fiber")

	// Run queue fields.
	FieldQueueDepth    = capitan.NewIntKey("queue_depth")
	FieldQueueCapacity = capitan.NewIntKey("queue_capacity")

	// Timer fields.
	FieldTimerID       = capitan.NewIntKey("timer_id")
	FieldTimerPeriodic = capitan.NewBoolKey("timer_periodic")

	// Resilience helper fields.
	FieldCircuitName = capitan.NewStringKey("circuit_name")
	FieldFailures    = capitan.NewIntKey("failures")
)
