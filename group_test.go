package fiberz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestGroupEnqueueRetriesOnOverflow(t *testing.T) {
	clk := clockz.NewFakeClock()
	rt := New(Config{Groups: 1, WorkersPerGroup: 1, RunQueueCapacity: 2, Clock: clk})
	g := rt.Group(0)

	require.True(t, g.queue.tryPush(&Fiber{id: 1}, false))
	require.True(t, g.queue.tryPush(&Fiber{id: 2}, false))

	done := make(chan struct{})
	go func() {
		g.enqueue(&Fiber{id: 3, group: g})
		close(done)
	}()

	// Free a slot, then advance the fake clock until the retry loop's
	// backoff wakes up and notices the room.
	_, ok := g.queue.tryPop()
	require.True(t, ok)

	require.Eventually(t, func() bool {
		clk.Advance(time.Second)
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, eventuallyTimeout, eventuallyTick)
}

func TestWorkStealingTakesFromSiblingGroup(t *testing.T) {
	rt := New(Config{Groups: 2, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	g0 := rt.Group(0)
	g1 := rt.Group(1)

	victim := &Fiber{id: 7, group: g1}
	require.True(t, g1.queue.tryPush(victim, false))

	f, ok := g0.trySteal()
	require.True(t, ok)
	require.Equal(t, victim, f)
}

func TestWorkStealingRefusesScopeLocalFiber(t *testing.T) {
	rt := New(Config{Groups: 2, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	g0 := rt.Group(0)
	g1 := rt.Group(1)

	pinned := &Fiber{id: 9, group: g1, scopeLocal: true}
	require.True(t, g1.queue.tryPush(pinned, pinned.scopeLocal))

	_, ok := g0.trySteal()
	require.False(t, ok)

	f, ok := g1.tryLocalPop()
	require.True(t, ok)
	require.Equal(t, pinned, f)
}

func TestLeastLoadedGroupPicksShallowestQueue(t *testing.T) {
	rt := New(Config{Groups: 2, WorkersPerGroup: 1, Clock: clockz.NewFakeClock()})
	g0 := rt.Group(0)
	require.True(t, g0.queue.tryPush(&Fiber{id: 1}, false))

	require.Equal(t, rt.Group(1), rt.leastLoadedGroup())
}
