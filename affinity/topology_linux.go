//go:build linux

// File: affinity/topology_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NUMA topology from sysfs. Each node directory carries a cpulist file in
// the kernel's range notation ("0-3,8,10-11"). CPUs beyond what the runtime
// sees (offline or outside the cgroup quota) are dropped so the partition
// stays consistent with CPUCount.

package affinity

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

const nodeRoot = "/sys/devices/system/node"

func discoverTopology() [][]int {
	entries, err := os.ReadDir(nodeRoot)
	if err != nil {
		return nil
	}
	var ids []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "node") {
			continue
		}
		id, err := strconv.Atoi(name[len("node"):])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)

	limit := CPUCount()
	seen := make(map[int]bool, limit)
	var nodes [][]int
	for _, id := range ids {
		raw, err := os.ReadFile(nodeRoot + "/node" + strconv.Itoa(id) + "/cpulist")
		if err != nil {
			return nil
		}
		cpus := parseCPUList(strings.TrimSpace(string(raw)))
		var kept []int
		for _, c := range cpus {
			if c >= limit || seen[c] {
				continue
			}
			seen[c] = true
			kept = append(kept, c)
		}
		if len(kept) > 0 {
			nodes = append(nodes, kept)
		}
	}
	// Any CPU sysfs did not claim still needs a home.
	var orphans []int
	for c := 0; c < limit; c++ {
		if !seen[c] {
			orphans = append(orphans, c)
		}
	}
	if len(orphans) > 0 {
		if len(nodes) == 0 {
			nodes = [][]int{orphans}
		} else {
			nodes[0] = append(nodes[0], orphans...)
			sort.Ints(nodes[0])
		}
	}
	return nodes
}

// parseCPUList decodes the kernel's cpulist notation.
func parseCPUList(s string) []int {
	var cpus []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || end < start {
				continue
			}
			for c := start; c <= end; c++ {
				cpus = append(cpus, c)
			}
			continue
		}
		c, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		cpus = append(cpus, c)
	}
	return cpus
}
