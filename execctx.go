package fiberz

import "context"

// ctxLike documents the contexts fiber-bound APIs accept: any
// context.Context carrying the calling fiber, attached by the runtime when
// it starts the fiber's entry function. Named separately from
// context.Context only so call sites like FiberLocal read as "the fiber's
// execution context," threading ctx as the first parameter through every
// blocking call.
type ctxLike = context.Context

type fiberCtxKey struct{}

// withFiber attaches f to ctx. Called exactly once per fiber, by
// newFiberNoEnqueue, to build the context the fiber's goroutine later
// passes to its entry function.
func withFiber(ctx context.Context, f *Fiber) context.Context {
	return context.WithValue(ctx, fiberCtxKey{}, f)
}

// Current returns the fiber executing on ctx, or nil if ctx was never
// derived from a fiber's entry context - e.g. a goroutine outside the
// runtime entirely.
func Current(ctx context.Context) *Fiber {
	f, _ := ctx.Value(fiberCtxKey{}).(*Fiber)
	return f
}

// mustCurrent resolves the calling fiber or aborts: every fiber-only
// primitive (FiberLocal, Yield, fiber-aware wait primitives) is a misuse
// when called off-fiber, and misuse is fatal per the error-handling
// taxonomy.
func mustCurrent(ctx context.Context) *Fiber {
	f := Current(ctx)
	if f == nil {
		fatalf("fiberz: operation requires a fiber execution context, called from outside any fiber")
	}
	return f
}
