// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package affinity

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-net/api"
)

func TestCPUCount_Positive(t *testing.T) {
	if CPUCount() < 1 {
		t.Fatalf("CPUCount = %d", CPUCount())
	}
}

// TestNUMATopology_Partition checks every CPU lands in exactly one node.
func TestNUMATopology_Partition(t *testing.T) {
	nodes := NUMATopology()
	if len(nodes) == 0 {
		t.Fatal("topology must report at least one node")
	}
	seen := make(map[int]int)
	total := 0
	for _, cpus := range nodes {
		if len(cpus) == 0 {
			t.Error("empty NUMA node in topology")
		}
		for _, c := range cpus {
			if c < 0 || c >= CPUCount() {
				t.Errorf("cpu %d out of range", c)
			}
			seen[c]++
			total++
		}
	}
	if total != CPUCount() {
		t.Errorf("topology covers %d CPUs, want %d", total, CPUCount())
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("cpu %d appears in %d nodes", c, n)
		}
	}
}

func TestNUMATopology_Memoized(t *testing.T) {
	a := NUMATopology()
	b := NUMATopology()
	if &a[0] != &b[0] {
		t.Error("topology must be discovered once and shared")
	}
	if NUMANodes() != len(a) {
		t.Errorf("NUMANodes = %d, want %d", NUMANodes(), len(a))
	}
}

func TestPinToCPU_OutOfRange(t *testing.T) {
	if err := PinToCPU(CPUCount()); err == nil {
		t.Fatal("pin beyond CPUCount must fail")
	}
	if err := PinToCPU(-1); err == nil {
		t.Fatal("negative cpu must fail")
	}
	if err := PinToCPUs(nil); err == nil {
		t.Fatal("empty set must fail")
	}
}

func TestPinToCPU_FirstCPU(t *testing.T) {
	err := PinToCPU(0)
	if err != nil && !errors.Is(err, api.ErrNotSupported) {
		t.Fatalf("pin cpu 0: %v", err)
	}
}
