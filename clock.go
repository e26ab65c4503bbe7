package fiberz

import "github.com/zoobzio/clockz"

// defaultClock is the clock every Group and Runtime is constructed with
// unless a Config overrides it: every timing-sensitive component here
// (timer.go, group.go's enqueue backoff, worker.go's steal retry,
// waitable.go's timed waits, facade.go's SleepFor, ratelimiter.go,
// circuitbreaker.go) reads the runtime's one clockz.Clock so tests can
// substitute a fake clock instead of sleeping real wall time.
var defaultClock clockz.Clock = clockz.RealClock

// clockOrDefault returns c if non-nil, else the package default.
// Centralized here once since every fiberz component that owns a clock
// needs the identical fallback.
func clockOrDefault(c clockz.Clock) clockz.Clock {
	if c == nil {
		return defaultClock
	}
	return c
}
