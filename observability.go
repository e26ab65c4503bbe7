package fiberz

import (
	"context"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys: each stateful component wires its counters/gauges into a
// shared metricz.Registry.
const (
	MetricRunQueueDepth     = metricz.Key("fiberz.runqueue.depth")
	MetricRunQueuePushFail  = metricz.Key("fiberz.runqueue.push_failures")
	MetricWorkersSleeping   = metricz.Key("fiberz.workers.sleeping")
	MetricWorkersSpinning   = metricz.Key("fiberz.workers.spinning")
	MetricStealsWon         = metricz.Key("fiberz.steals.won")
	MetricStealsAttempted   = metricz.Key("fiberz.steals.attempted")
	MetricFibersStarted     = metricz.Key("fiberz.fibers.started")
	MetricFibersExited      = metricz.Key("fiberz.fibers.exited")
	MetricTimersFired       = metricz.Key("fiberz.timers.fired")
	MetricTimersOutstanding = metricz.Key("fiberz.timers.outstanding")

	// Resilience helper metrics: retry/backoff/circuit breaker counters.
	MetricRetryAttempts     = metricz.Key("fiberz.retry.attempts")
	MetricRetrySuccesses    = metricz.Key("fiberz.retry.successes")
	MetricRetryExhausted    = metricz.Key("fiberz.retry.exhausted")
	MetricCircuitRejections = metricz.Key("fiberz.circuitbreaker.rejections")
	MetricCircuitTrips      = metricz.Key("fiberz.circuitbreaker.trips")
	MetricRateLimiterDenied = metricz.Key("fiberz.ratelimiter.denied")
)

// Span keys and tags for tracez, following a <component>.<operation>
// naming convention.
const (
	SpanFiberResume   = tracez.Key("fiberz.fiber.resume")
	SpanGroupAcquire  = tracez.Key("fiberz.group.acquire")
	SpanWorkerSteal   = tracez.Key("fiberz.worker.steal")
	SpanTimerCallback = tracez.Key("fiberz.timer.callback")

	TagFiberID    = tracez.Tag("fiberz.fiber_id")
	TagGroupIndex = tracez.Tag("fiberz.group_index")
	TagWorkerIdx  = tracez.Tag("fiberz.worker_index")
)

// Hook keys for the hookz events the runtime emits.
const (
	HookFiberExited  = hookz.Key("fiberz.fiber.exited")
	HookTimerFired   = hookz.Key("fiberz.timer.fired")
	HookWorkerAsleep = hookz.Key("fiberz.worker.asleep")
)

// FiberExitedEvent is emitted via hookz when any fiber transitions to Dead.
type FiberExitedEvent struct {
	Fault   error
	Name    string
	FiberID uint64
}

// TimerFiredEvent is emitted via hookz immediately after a timer callback
// returns.
type TimerFiredEvent struct {
	TimerID  uint64
	Periodic bool
}

// observability bundles the metricz/tracez/hookz trio a Runtime owns, so
// every Group/Worker/Timer can share one registry instead of each
// maintaining its own: a Runtime is a single owning root, so one shared
// bundle is the natural fit here rather than a registry per component.
type observability struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[any]
}

func newObservability() *observability {
	reg := metricz.New()
	for _, k := range []metricz.Key{
		MetricRunQueueDepth, MetricWorkersSleeping,
		MetricWorkersSpinning, MetricTimersOutstanding,
	} {
		reg.Gauge(k)
	}
	for _, k := range []metricz.Key{
		MetricRunQueuePushFail, MetricStealsWon, MetricStealsAttempted,
		MetricFibersStarted, MetricFibersExited, MetricTimersFired,
		MetricRetryAttempts, MetricRetrySuccesses, MetricRetryExhausted,
		MetricCircuitRejections, MetricCircuitTrips, MetricRateLimiterDenied,
	} {
		reg.Counter(k)
	}
	return &observability{
		metrics: reg,
		tracer:  tracez.New(),
		hooks:   hookz.New[any](),
	}
}

func (o *observability) emitFiberExited(ctx context.Context, f *Fiber) {
	if o == nil {
		return
	}
	o.metrics.Counter(MetricFibersExited).Inc()
	var faultErr error
	if f.fault != nil {
		faultErr = f.fault
	}
	if o.hooks.ListenerCount(HookFiberExited) > 0 {
		_ = o.hooks.Emit(ctx, HookFiberExited, FiberExitedEvent{ //nolint:errcheck
			FiberID: f.ID(),
			Name:    f.name,
			Fault:   faultErr,
		})
	}
}
