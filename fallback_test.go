package fiberz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestFallbackUsesPrimaryWhenItSucceeds(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 2, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	done := make(chan int, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		primary := func(context.Context) (int, error) { return 1, nil }
		secondary := func(context.Context) (int, error) { return 2, nil }
		v, err := Fallback(fctx, nil, primary, secondary)
		require.NoError(t, err)
		done <- v
	})
	require.Equal(t, 1, <-done)
}

func TestFallbackUsesSecondaryWhenPrimaryFails(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 2, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	done := make(chan int, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		primary := func(context.Context) (int, error) { return 0, errors.New("down") }
		secondary := func(context.Context) (int, error) { return 2, nil }
		v, err := Fallback(fctx, nil, primary, secondary)
		require.NoError(t, err)
		done <- v
	})
	require.Equal(t, 2, <-done)
}

func TestFallbackReturnsSecondaryErrorWhenBothFail(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 2, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	boom := errors.New("still down")
	done := make(chan error, 1)
	rt.Spawn(ctx, nil, "caller", func(fctx context.Context) {
		primary := func(context.Context) (int, error) { return 0, errors.New("down") }
		secondary := func(context.Context) (int, error) { return 0, boom }
		_, err := Fallback(fctx, nil, primary, secondary)
		done <- err
	})
	require.ErrorIs(t, <-done, boom)
}
