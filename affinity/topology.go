// File: affinity/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import "sync"

var (
	topoOnce sync.Once
	topo     [][]int
)

// NUMATopology reports the logical CPUs grouped by NUMA node. Node i's CPUs
// are at index i. Every CPU index below CPUCount appears in exactly one
// node; hosts without discoverable topology report a single node holding
// all CPUs. The result is discovered once and shared, so callers must not
// mutate it.
func NUMATopology() [][]int {
	topoOnce.Do(func() {
		topo = discoverTopology()
		if len(topo) == 0 {
			topo = singleNode()
		}
	})
	return topo
}

// NUMANodes reports how many NUMA nodes the topology has.
func NUMANodes() int {
	return len(NUMATopology())
}

func singleNode() [][]int {
	cpus := make([]int, CPUCount())
	for i := range cpus {
		cpus[i] = i
	}
	return [][]int{cpus}
}
