package fiberz

import "context"

// Fallback runs primary on its own fiber; if it fails, it runs secondary
// on its own fiber and returns that result instead. Unlike Contest,
// secondary never runs concurrently with primary - it only starts once
// primary has already failed, a sequential try-then-recover shape rather
// than Contest's race-until-one-succeeds.
// Must be called from inside a fiber.
func Fallback[T any](ctx context.Context, group *Group, primary, secondary func(context.Context) (T, error)) (T, error) {
	f := mustCurrent(ctx)
	rt := f.group.runtime()

	primaryResult := spawnOp(ctx, rt, group, "fallback-primary", primary).Wait(ctx)
	if primaryResult.err == nil {
		return primaryResult.val, nil
	}
	secondaryResult := spawnOp(ctx, rt, group, "fallback-secondary", secondary).Wait(ctx)
	return secondaryResult.val, secondaryResult.err
}
