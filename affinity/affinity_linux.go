//go:build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform pins the calling thread with sched_setaffinity(2).
// pid 0 targets the caller, which the public entry points have already
// locked to the current goroutine.
func setAffinityPlatform(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity: %w", err)
	}
	return nil
}
