package fiberz

import (
	"os"
	"runtime"
	"strconv"
)

// Node describes one NUMA node's share of logical CPUs, matching the
// design's NUMA-aware bootstrap (§3). Go's standard library exposes no
// portable NUMA topology query - unlike the source design's use of the
// host's hwloc/numa bindings - so detection here is best-effort: it
// trusts FIBERZ_NUMA_NODES when set (for environments that know their
// own layout) and otherwise reports the whole machine as a single node.
// A real deployment that cares about node-local allocation can still get
// exact control via Config.Groups.
type Node struct {
	CPUs  int
	Index int
}

// Topology reports the logical NUMA layout fiberz will schedule against.
func Topology() TopologyInfo {
	if n, ok := numaNodesFromEnv(); ok {
		return n
	}
	return TopologyInfo{Nodes: []Node{{Index: 0, CPUs: runtime.GOMAXPROCS(0)}}}
}

// TopologyInfo is the result of a topology query.
type TopologyInfo struct {
	Nodes []Node
}

func numaNodesFromEnv() (TopologyInfo, bool) {
	raw := os.Getenv("FIBERZ_NUMA_NODES")
	if raw == "" {
		return TopologyInfo{}, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return TopologyInfo{}, false
	}
	cpus := runtime.GOMAXPROCS(0)
	perNode := cpus / n
	if perNode < 1 {
		perNode = 1
	}
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{Index: i, CPUs: perNode}
	}
	return TopologyInfo{Nodes: nodes}, true
}
