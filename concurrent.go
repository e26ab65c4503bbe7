package fiberz

import "context"

// Concurrent runs every fn on its own fiber in group and waits for all of
// them, fiber-style fan-out/fan-in: each fn gets an isolated fiber instead
// of an isolated goroutine, and the wait is a suspend rather than a
// sync.WaitGroup.Wait block. Must be called from inside a fiber.
//
// Results are returned in the same order as fns, regardless of completion
// order.
func Concurrent[T any](ctx context.Context, group *Group, fns []func(context.Context) (T, error)) ([]T, []error) {
	f := mustCurrent(ctx)
	rt := f.group.runtime()

	waiters := make([]*Oneshot[opResult[T]], len(fns))
	for i, fn := range fns {
		waiters[i] = spawnOp(ctx, rt, group, "concurrent-task", fn)
	}

	results := make([]T, len(fns))
	errs := make([]error, len(fns))
	for i, w := range waiters {
		r := w.Wait(ctx)
		results[i] = r.val
		errs[i] = r.err
	}
	return results, errs
}
