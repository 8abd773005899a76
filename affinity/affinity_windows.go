//go:build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows pinning through SetThreadAffinityMask, which takes a bitmask and
// therefore caps usable CPU indices at 63.

package affinity

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-net/api"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread      = modkernel32.NewProc("GetCurrentThread")
)

func setAffinityPlatform(cpus []int) error {
	var mask uintptr
	for _, c := range cpus {
		if c >= 64 {
			return fmt.Errorf("pin: cpu %d beyond affinity mask width: %w", c, api.ErrNotSupported)
		}
		mask |= 1 << uint(c)
	}
	hThread, _, _ := procGetCurrentThread.Call()
	ret, _, callErr := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return fmt.Errorf("SetThreadAffinityMask: %v", callErr)
	}
	return nil
}
