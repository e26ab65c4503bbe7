package fiberz

import "time"

// eventuallyTimeout/eventuallyTick bound require.Eventually polls across
// this package's tests. Generous relative to the real time these
// assertions need, since CI runners can be slow; never used for tests
// whose timing is itself under test - those use clockz.NewFakeClock and
// Advance/BlockUntilReady instead.
const (
	eventuallyTimeout = 2 * time.Second
	eventuallyTick    = 2 * time.Millisecond
)
