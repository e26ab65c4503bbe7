package fiberz

import "context"

// Race runs every fn on its own fiber and returns whichever finishes
// first, success or failure - the fiber analogue of firing N goroutines
// at a single result channel and taking the first send. Losing fibers
// are not canceled; they run to completion and their results are simply
// never read. Must be called from inside a fiber.
func Race[T any](ctx context.Context, group *Group, fns []func(context.Context) (T, error)) (T, error) {
	f := mustCurrent(ctx)
	rt := f.group.runtime()

	winner := NewOneshot[opResult[T]]()
	for _, fn := range fns {
		fn := fn
		rt.Spawn(ctx, group, "race-task", func(fctx context.Context) {
			v, err := fn(fctx)
			winner.Fire(opResult[T]{val: v, err: err})
		})
	}
	r := winner.Wait(ctx)
	return r.val, r.err
}
