package fiberz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestRaceReturnsFirstFinisher(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 4, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	done := make(chan int, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		fast := func(context.Context) (int, error) { return 1, nil }
		slow := func(fctx2 context.Context) (int, error) {
			Yield(fctx2)
			Yield(fctx2)
			return 2, nil
		}
		v, err := Race(fctx, nil, []func(context.Context) (int, error){slow, fast})
		require.NoError(t, err)
		done <- v
	})

	require.Equal(t, 1, <-done)
}
