package fiberz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDAllocatorMonotonic(t *testing.T) {
	var a idAllocator
	first := a.alloc()
	second := a.alloc()
	require.Less(t, first, second)
}

func TestSlotAllocatorReusesReleased(t *testing.T) {
	var a slotAllocator
	s0 := a.alloc()
	s1 := a.alloc()
	require.NotEqual(t, s0, s1)

	a.release(s0)
	s2 := a.alloc()
	require.Equal(t, s0, s2)
}
