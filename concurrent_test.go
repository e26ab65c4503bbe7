package fiberz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestConcurrentWaitsForAllAndPreservesOrder(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 4, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	done := make(chan struct {
		vals []int
		errs []error
	}, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		fns := make([]func(context.Context) (int, error), 5)
		for i := 0; i < 5; i++ {
			i := i
			fns[i] = func(context.Context) (int, error) { return i * i, nil }
		}
		vals, errs := Concurrent(fctx, nil, fns)
		done <- struct {
			vals []int
			errs []error
		}{vals, errs}
	})

	r := <-done
	require.Equal(t, []int{0, 1, 4, 9, 16}, r.vals)
	for _, e := range r.errs {
		require.NoError(t, e)
	}
}
