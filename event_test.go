package fiberz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestEventSetWakesWaiters(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 3, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	var ev Event
	done := make(chan struct{})
	rt.Spawn(ctx, nil, "waiter", func(fctx context.Context) {
		ev.Wait(fctx)
		close(done)
	})
	rt.Spawn(ctx, nil, "setter", func(context.Context) {
		ev.Set()
	})
	<-done
}

func TestEventAlreadySetWaitReturnsImmediately(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	var ev Event
	ev.Set()
	require.True(t, ev.IsSet())

	done := make(chan struct{})
	rt.Spawn(ctx, nil, "waiter", func(fctx context.Context) {
		ev.Wait(fctx)
		close(done)
	})
	<-done
}

func TestEventResetClearsSetFlag(t *testing.T) {
	var ev Event
	ev.Set()
	ev.Reset()
	require.False(t, ev.IsSet())
}
