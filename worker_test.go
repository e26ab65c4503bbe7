package fiberz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestWorkerCurrentReflectsRunningFiber(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	ctx := context.Background()
	rt.Start(ctx)
	defer rt.Stop()

	seen := make(chan *Fiber, 1)
	f := rt.Spawn(ctx, nil, "watcher", func(fctx context.Context) {
		seen <- mustCurrent(fctx).Worker().Current()
	})

	require.Equal(t, f, <-seen)
}

func TestAcquireFiberStopsOnStopSignal(t *testing.T) {
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	g := rt.Group(0)
	w := g.workers[0]

	close(w.stopCh)
	_, ok := w.acquireFiber(context.Background())
	require.False(t, ok)
}
