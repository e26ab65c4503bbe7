package fiberz

import (
	"context"
	"errors"
	"fmt"
)

// ErrContestAllFailed is returned by Contest when every fn fails; wrap it
// with errors.Join semantics via Unwrap to inspect individual failures.
var ErrContestAllFailed = errors.New("fiberz: all contestants failed")

// contestState coordinates the shared failure count across every
// contestant fiber, guarded by its own Spinlock since it is written from
// N concurrently-running fibers.
type contestState struct {
	mu        Spinlock
	remaining int
	errs      []error
}

// Contest runs every fn on its own fiber and returns the first one to
// succeed, unlike Race which returns the first to finish regardless of
// outcome. If every fn fails, Contest returns ErrContestAllFailed wrapping
// every individual error. Must be called from inside a fiber.
func Contest[T any](ctx context.Context, group *Group, fns []func(context.Context) (T, error)) (T, error) {
	f := mustCurrent(ctx)
	rt := f.group.runtime()

	winner := NewOneshot[opResult[T]]()
	state := &contestState{remaining: len(fns), errs: make([]error, 0, len(fns))}

	for _, fn := range fns {
		fn := fn
		rt.Spawn(ctx, group, "contest-task", func(fctx context.Context) {
			v, err := fn(fctx)
			if err == nil {
				winner.Fire(opResult[T]{val: v})
				return
			}
			state.mu.Lock()
			state.remaining--
			state.errs = append(state.errs, err)
			last := state.remaining == 0
			allErrs := state.errs
			state.mu.Unlock()
			if last {
				winner.Fire(opResult[T]{err: joinContestErrors(allErrs)})
			}
		})
	}
	r := winner.Wait(ctx)
	return r.val, r.err
}

func joinContestErrors(errs []error) error {
	joined := ErrContestAllFailed
	for _, e := range errs {
		joined = fmt.Errorf("%w: %w", joined, e)
	}
	return joined
}
