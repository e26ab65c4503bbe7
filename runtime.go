package fiberz

import (
	"context"
	"sync/atomic"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
)

// Runtime is the top-level M:N fiber scheduler: a set of scheduling
// groups, each with its own bounded run queue and pool of workers,
// sharing one clock and one observability bundle. Corresponds to the
// design's reactor/engine bootstrap (§3).
type Runtime struct {
	cfg    Config
	clock  clockz.Clock
	obs    *observability
	groups []*Group

	sleepingWorkers atomic.Int64

	startCtx context.Context
	cancel   context.CancelFunc
}

// New builds a Runtime from cfg without starting it. Call Start to spin
// up workers.
func New(cfg Config) *Runtime {
	cfg = cfg.withDefaults()
	rt := &Runtime{
		cfg:   cfg,
		clock: cfg.Clock,
		obs:   newObservability(),
	}
	rt.groups = make([]*Group, cfg.Groups)
	for i := 0; i < cfg.Groups; i++ {
		rt.groups[i] = newGroup(rt, i, cfg.RunQueueCapacity, cfg.WorkersPerGroup)
	}
	for _, g := range rt.groups {
		g.siblings = rt.groups
	}
	return rt
}

func (rt *Runtime) observe() *observability { return rt.obs }

// Clock returns the runtime's shared clock.
func (rt *Runtime) Clock() clockz.Clock { return rt.clock }

// Groups returns every scheduling group, in index order.
func (rt *Runtime) Groups() []*Group {
	out := make([]*Group, len(rt.groups))
	copy(out, rt.groups)
	return out
}

// Group returns the scheduling group at idx, or nil if out of range.
func (rt *Runtime) Group(idx int) *Group {
	if idx < 0 || idx >= len(rt.groups) {
		return nil
	}
	return rt.groups[idx]
}

// Metrics exposes the runtime's metricz registry for scraping.
func (rt *Runtime) Metrics() *metricz.Registry { return rt.obs.metrics }

// Start launches every group's workers. ctx governs the whole runtime's
// lifetime: canceling it is equivalent to calling Stop.
func (rt *Runtime) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	rt.startCtx = runCtx
	rt.cancel = cancel
	capitan.Info(ctx, SignalRuntimeStarting, FieldGroupSize.Field(len(rt.groups)))
	for _, g := range rt.groups {
		g.start(runCtx)
	}
	capitan.Info(ctx, SignalRuntimeStarted)
}

// Stop signals every worker to finish its current fiber and exit, then
// waits for all of them to stop. Fibers still parked (blocked on a wait
// primitive) are left exactly as they are - Stop does not cancel them.
func (rt *Runtime) Stop() {
	capitan.Info(context.Background(), SignalRuntimeStopping)
	if rt.cancel != nil {
		rt.cancel()
	}
	for _, g := range rt.groups {
		g.stop()
	}
	rt.obs.hooks.Close()
	capitan.Info(context.Background(), SignalRuntimeStopped)
}

// Spawn creates a new fiber in group (or, if group is nil, the group
// with the currently shallowest run queue) and enqueues it ready to run.
func (rt *Runtime) Spawn(ctx context.Context, group *Group, name string, entry func(context.Context)) *Fiber {
	if group == nil {
		group = rt.leastLoadedGroup()
	}
	return NewFiber(ctx, Attributes{Name: name, Group: group}, entry)
}

func (rt *Runtime) leastLoadedGroup() *Group {
	best := rt.groups[0]
	bestLen := best.queue.len()
	for _, g := range rt.groups[1:] {
		if l := g.queue.len(); l < bestLen {
			best, bestLen = g, l
		}
	}
	return best
}
