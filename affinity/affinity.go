// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral API for CPU pinning and NUMA topology discovery.
// Platform-specific implementations live in separate files guarded by build
// tags.

package affinity

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-net/api"
)

// CPUCount reports how many logical CPUs the process may run on.
func CPUCount() int {
	return runtime.NumCPU()
}

// PinToCPU pins the calling goroutine's OS thread to one logical CPU. The
// thread is locked to the goroutine first, so the pin holds for as long as
// the goroutine runs. Platforms without thread affinity report
// api.ErrNotSupported.
func PinToCPU(cpu int) error {
	return PinToCPUs([]int{cpu})
}

// PinToCPUs pins the calling goroutine's OS thread to a set of logical
// CPUs. Every CPU index must be in [0, CPUCount()); an empty set is
// rejected.
func PinToCPUs(cpus []int) error {
	if len(cpus) == 0 {
		return fmt.Errorf("pin: empty cpu set: %w", api.ErrInvalidConfig)
	}
	limit := CPUCount()
	for _, c := range cpus {
		if c < 0 || c >= limit {
			return fmt.Errorf("pin: cpu %d out of range [0,%d): %w", c, limit, api.ErrInvalidConfig)
		}
	}
	runtime.LockOSThread()
	if err := setAffinityPlatform(cpus); err != nil {
		runtime.UnlockOSThread()
		return err
	}
	return nil
}
