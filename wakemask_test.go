package fiberz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWakeMaskWakesLowestSleepingIndex(t *testing.T) {
	m := newWakeMask(4)
	m.markAsleep(2)
	m.markAsleep(0)
	m.markAsleep(3)

	require.True(t, m.wakeOne())
	select {
	case <-m.waitChannel(0):
	default:
		t.Fatal("expected worker 0 to be woken first")
	}
}

func TestWakeMaskNoSleepersReturnsFalse(t *testing.T) {
	m := newWakeMask(2)
	require.False(t, m.wakeOne())
}

func TestWakeMaskMarkAwakeClearsBit(t *testing.T) {
	m := newWakeMask(1)
	m.markAsleep(0)
	m.markAwake(0)
	require.False(t, m.wakeOne())
}
