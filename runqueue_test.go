package fiberz

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunQueuePushPopOrder(t *testing.T) {
	q := newRunQueue(4)
	a := &Fiber{id: 1}
	b := &Fiber{id: 2}

	require.True(t, q.tryPush(a, false))
	require.True(t, q.tryPush(b, false))

	got, ok := q.tryPop()
	require.True(t, ok)
	require.Equal(t, a, got)

	got, ok = q.tryPop()
	require.True(t, ok)
	require.Equal(t, b, got)

	_, ok = q.tryPop()
	require.False(t, ok)
}

func TestRunQueueRejectsWhenFull(t *testing.T) {
	q := newRunQueue(2)
	require.True(t, q.tryPush(&Fiber{id: 1}, false))
	require.True(t, q.tryPush(&Fiber{id: 2}, false))
	require.False(t, q.tryPush(&Fiber{id: 3}, false))
}

func TestRunQueueRejectsNonPowerOfTwoCapacity(t *testing.T) {
	old := abortFunc
	called := false
	abortFunc = func() { called = true }
	defer func() {
		abortFunc = old
		_ = recover()
	}()
	newRunQueue(3)
	require.True(t, called)
}

func TestRunQueueStealRefusesInstealableHead(t *testing.T) {
	q := newRunQueue(4)
	pinned := &Fiber{id: 1}
	require.True(t, q.tryPush(pinned, true))

	_, ok := q.steal()
	require.False(t, ok)

	got, ok := q.tryPop()
	require.True(t, ok)
	require.Equal(t, pinned, got)
}

func TestRunQueueStealTakesStealableHead(t *testing.T) {
	q := newRunQueue(4)
	f := &Fiber{id: 1}
	require.True(t, q.tryPush(f, false))

	got, ok := q.steal()
	require.True(t, ok)
	require.Equal(t, f, got)
}

func TestRunQueueBatchPushAllOrNothing(t *testing.T) {
	q := newRunQueue(4)
	fs := []*Fiber{{id: 1}, {id: 2}, {id: 3}}
	require.True(t, q.tryBatchPush(fs, []bool{false, false, true}))

	for _, want := range fs {
		got, ok := q.tryPop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := q.tryPop()
	require.False(t, ok)
}

func TestRunQueueBatchPushFailsWhenTooLarge(t *testing.T) {
	q := newRunQueue(2)
	require.True(t, q.tryPush(&Fiber{id: 0}, false))

	fs := []*Fiber{{id: 1}, {id: 2}}
	require.False(t, q.tryBatchPush(fs, []bool{false, false}))

	// The failed batch must not have partially landed.
	got, ok := q.tryPop()
	require.True(t, ok)
	require.Equal(t, uint64(0), got.id)
	_, ok = q.tryPop()
	require.False(t, ok)
}

func TestRunQueueConcurrentPushPop(t *testing.T) {
	q := newRunQueue(1024)
	const n = 500
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for !q.tryPush(&Fiber{id: id}, false) {
			}
		}(uint64(i))
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for i := 0; i < n; i++ {
		f, ok := q.tryPop()
		require.True(t, ok)
		seen[f.id] = true
	}
	require.Len(t, seen, n)
	_, ok := q.tryPop()
	require.False(t, ok)
}
