package fiberz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestContestReturnsFirstSuccess(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 4, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	done := make(chan int, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		fails := func(context.Context) (int, error) { return 0, errors.New("nope") }
		succeeds := func(context.Context) (int, error) { return 9, nil }
		v, err := Contest(fctx, nil, []func(context.Context) (int, error){fails, fails, succeeds})
		require.NoError(t, err)
		done <- v
	})

	require.Equal(t, 9, <-done)
}

func TestContestReturnsAggregateErrorWhenAllFail(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 4, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	done := make(chan error, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		fails := func(context.Context) (int, error) { return 0, errors.New("nope") }
		_, err := Contest(fctx, nil, []func(context.Context) (int, error){fails, fails})
		done <- err
	})

	err := <-done
	require.ErrorIs(t, err, ErrContestAllFailed)
}
