package fiberz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestRateLimiterTryAcquireRespectsBurst(t *testing.T) {
	clk := clockz.NewFakeClock()
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clk})
	rl := NewRateLimiter(rt, 1, 2)

	require.True(t, rl.TryAcquire())
	require.True(t, rl.TryAcquire())
	require.False(t, rl.TryAcquire())
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	clk := clockz.NewFakeClock()
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clk})
	rl := NewRateLimiter(rt, 10, 1)

	require.True(t, rl.TryAcquire())
	require.False(t, rl.TryAcquire())

	clk.Advance(200 * time.Millisecond)
	require.True(t, rl.TryAcquire())
}

func TestRateLimiterAcquireWaitsForToken(t *testing.T) {
	clk := clockz.NewFakeClock()
	rt := New(Config{Groups: 1, WorkersPerGroup: 2, Clock: clk})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	rl := NewRateLimiter(rt, 10, 1)
	require.True(t, rl.TryAcquire())

	done := make(chan error, 1)
	rt.Spawn(ctx, nil, "waiter", func(fctx context.Context) {
		done <- rl.Acquire(fctx)
	})

	require.Eventually(t, func() bool {
		clk.Advance(50 * time.Millisecond)
		select {
		case err := <-done:
			require.NoError(t, err)
			return true
		default:
			return false
		}
	}, eventuallyTimeout, eventuallyTick)
}
