package fiberz

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestRetrySucceedsBeforeExhaustion(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	var calls atomic.Int32
	done := make(chan error, 1)
	rt.Spawn(ctx, nil, "retrier", func(fctx context.Context) {
		err := Retry(fctx, RetryOptions{MaxAttempts: 5}, func(context.Context) error {
			if calls.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		})
		done <- err
	})

	require.NoError(t, <-done)
	require.Equal(t, int32(3), calls.Load())
}

func TestRetryReturnsLastErrorOnExhaustion(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	boom := errors.New("boom")
	done := make(chan error, 1)
	rt.Spawn(ctx, nil, "retrier", func(fctx context.Context) {
		done <- Retry(fctx, RetryOptions{MaxAttempts: 3}, func(context.Context) error {
			return boom
		})
	})

	require.ErrorIs(t, <-done, boom)
}

func TestRetryBacksOffBetweenAttempts(t *testing.T) {
	clk := clockz.NewFakeClock()
	rt := New(Config{Groups: 1, WorkersPerGroup: 2, Clock: clk})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	var calls atomic.Int32
	done := make(chan error, 1)
	rt.Spawn(ctx, nil, "retrier", func(fctx context.Context) {
		done <- Retry(fctx, RetryOptions{
			MaxAttempts: 3,
			BaseDelay:   10 * time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
		}, func(context.Context) error {
			if calls.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		})
	})

	require.Eventually(t, func() bool {
		clk.Advance(10 * time.Millisecond)
		clk.Advance(20 * time.Millisecond)
		select {
		case err := <-done:
			require.NoError(t, err)
			return true
		default:
			return false
		}
	}, eventuallyTimeout, eventuallyTick)
}
