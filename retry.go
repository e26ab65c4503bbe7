package fiberz

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// RetryOptions configures Retry. MaxAttempts < 1 is treated as 1 (a single
// try, no retry). BaseDelay <= 0 disables the inter-attempt sleep entirely,
// folding plain immediate re-try and delayed backoff re-try into one knob
// instead of two separate helpers.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Retry runs fn on the calling fiber up to opts.MaxAttempts times, sleeping
// with exponential backoff between failures via SleepFor rather than a
// native time.Sleep or clock.After select - the retry loop is a fiber
// operation, so its waiting must suspend the fiber instead of parking an
// OS thread. Must be called from inside a fiber (SleepFor requires it).
//
// Returns the last error if every attempt fails, or nil on the first
// success. ctx cancellation is observed between attempts.
func Retry(ctx context.Context, opts RetryOptions, fn func(context.Context) error) error {
	f := mustCurrent(ctx)
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	obs := f.group.runtime().observe()
	policy := newBackoffPolicy(opts.BaseDelay, opts.MaxDelay)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		obs.metrics.Counter(MetricRetryAttempts).Inc()
		lastErr = fn(ctx)
		if lastErr == nil {
			obs.metrics.Counter(MetricRetrySuccesses).Inc()
			return nil
		}
		if attempt < maxAttempts-1 && opts.BaseDelay > 0 {
			SleepFor(ctx, policy.next(attempt))
		}
	}
	obs.metrics.Counter(MetricRetryExhausted).Inc()
	capitan.Warn(ctx, SignalRetryExhausted,
		FieldFiberID.Field(int(f.id)), FieldError.Field(lastErr.Error()))
	return lastErr
}
