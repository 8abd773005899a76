//go:build !linux && !windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub for platforms without a thread affinity call (notably darwin, where
// the scheduler only takes placement hints).

package affinity

import "github.com/momentics/hioload-net/api"

func setAffinityPlatform(_ []int) error {
	return api.ErrNotSupported
}
