package fiberz

import (
	"context"
	"time"
)

// opResult carries a combinator operation's outcome through a Oneshot,
// shared by WithTimeout and the fan-out combinators in race.go, contest.go,
// concurrent.go and fallback.go.
type opResult[T any] struct {
	val T
	err error
}

// spawnOp runs fn on a freshly spawned fiber in group and returns a
// Oneshot that fires with its result. Used wherever a combinator needs to
// run an operation concurrently with something else and later wait on it.
func spawnOp[T any](ctx context.Context, rt *Runtime, group *Group, name string, fn func(context.Context) (T, error)) *Oneshot[opResult[T]] {
	o := NewOneshot[opResult[T]]()
	rt.Spawn(ctx, group, name, func(fctx context.Context) {
		v, err := fn(fctx)
		o.Fire(opResult[T]{val: v, err: err})
	})
	return o
}

// WithTimeout runs fn on its own fiber and waits for it, up to d. On
// timeout it returns ErrTimedOut; fn's fiber is left to finish on its own
// time (fibers are not cancellable mid-flight, only their results can be
// abandoned) and its late result is simply discarded when it fires.
//
// Must be called from inside a fiber: WithTimeout waits via Oneshot,
// which suspends the calling fiber rather than blocking an OS thread.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	f := mustCurrent(ctx)
	rt := f.group.runtime()
	result := spawnOp(ctx, rt, f.group, "timeout-op", fn)

	v, wr := result.WaitTimeout(ctx, d)
	if wr.TimedOut {
		var zero T
		return zero, ErrTimedOut
	}
	return v.val, v.err
}
