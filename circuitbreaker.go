package fiberz

import (
	"context"
	"errors"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// ErrCircuitOpen is returned by CircuitBreaker.Call without invoking fn
// while the circuit is open and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("fiberz: circuit breaker open")

// CircuitBreaker protects a fiber operation from repeatedly calling a
// failing dependency: after failureThreshold consecutive failures it
// trips open and short-circuits every call for resetTimeout, then moves to
// half-open: a failure in half-open re-opens the circuit and a success
// closes it. Half-open does not limit how many calls run at once; every
// call that arrives while half-open invokes fn.
//
// A CircuitBreaker is shared across fibers, so its state transitions are
// guarded by a Spinlock rather than being fiber-local like the wait
// primitives in waitable.go.
type CircuitBreaker[T any] struct {
	clock            clockz.Clock
	obs              *observability
	name             string
	mu               Spinlock
	state            circuitState
	failures         int
	failureThreshold int
	resetTimeout     time.Duration
	openedAt         time.Time
}

// NewCircuitBreaker returns a closed CircuitBreaker.
func NewCircuitBreaker[T any](rt *Runtime, name string, failureThreshold int, resetTimeout time.Duration) *CircuitBreaker[T] {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker[T]{
		clock:            rt.Clock(),
		obs:              rt.observe(),
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// Call invokes fn unless the circuit is open, tracking the outcome to
// drive the state machine. Call itself does not suspend the calling
// fiber; fn is free to do so.
func (cb *CircuitBreaker[T]) Call(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	cb.mu.Lock()
	state := cb.state
	if state == circuitOpen {
		if cb.clock.Now().Sub(cb.openedAt) < cb.resetTimeout {
			cb.mu.Unlock()
			cb.obs.metrics.Counter(MetricCircuitRejections).Inc()
			return zero, ErrCircuitOpen
		}
		cb.state = circuitHalfOpen
		capitan.Info(ctx, SignalCircuitHalfOpened, FieldCircuitName.Field(cb.name))
	}
	cb.mu.Unlock()

	result, err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		if cb.state == circuitHalfOpen || cb.failures >= cb.failureThreshold {
			cb.trip(ctx)
		}
		return result, err
	}
	if cb.state != circuitClosed {
		capitan.Info(ctx, SignalCircuitClosed, FieldCircuitName.Field(cb.name))
	}
	cb.state = circuitClosed
	cb.failures = 0
	return result, nil
}

// trip must be called with cb.mu held.
func (cb *CircuitBreaker[T]) trip(ctx context.Context) {
	cb.state = circuitOpen
	cb.openedAt = cb.clock.Now()
	cb.obs.metrics.Counter(MetricCircuitTrips).Inc()
	capitan.Warn(ctx, SignalCircuitOpened,
		FieldCircuitName.Field(cb.name), FieldFailures.Field(cb.failures))
}

// State reports the breaker's current state as a string for diagnostics.
func (cb *CircuitBreaker[T]) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
