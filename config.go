package fiberz

import (
	"runtime"

	"github.com/zoobzio/clockz"
)

// defaultRunQueueCapacity is the per-group bounded run queue size. Must
// be a power of two (runQueue requirement). Chosen generously so normal
// workloads never hit the retry-with-backoff path.
const defaultRunQueueCapacity = 4096

// Config configures a Runtime. Zero value is valid - every field falls
// back to a topology-derived default, following a Config-struct-with-
// defaults pattern.
type Config struct {
	// Groups is the number of scheduling groups to create. Zero means
	// one group per NUMA node as reported by Topology(), falling back
	// to one group for the whole machine when topology detection finds
	// a single node.
	Groups int

	// WorkersPerGroup is the number of OS-thread-equivalent workers per
	// scheduling group. Zero means GOMAXPROCS / Groups, at least one.
	WorkersPerGroup int

	// RunQueueCapacity is the bounded run queue size per group. Zero
	// means defaultRunQueueCapacity. Must be a power of two if set.
	RunQueueCapacity int

	// Clock overrides time for every timing-sensitive component
	// (timers, enqueue backoff, worker steal-retry). Nil means
	// clockz.RealClock.
	Clock clockz.Clock
}

func (c Config) withDefaults() Config {
	out := c
	if out.Groups <= 0 {
		out.Groups = len(Topology().Nodes)
		if out.Groups <= 0 {
			out.Groups = 1
		}
	}
	if out.WorkersPerGroup <= 0 {
		n := runtime.GOMAXPROCS(0) / out.Groups
		if n < 1 {
			n = 1
		}
		out.WorkersPerGroup = n
	}
	if out.RunQueueCapacity <= 0 {
		out.RunQueueCapacity = defaultRunQueueCapacity
	}
	out.Clock = clockOrDefault(out.Clock)
	return out
}
