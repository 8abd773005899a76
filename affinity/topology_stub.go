//go:build !linux

// File: affinity/topology_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

// discoverTopology has no portable source outside Linux; the caller falls
// back to a single node covering every CPU.
func discoverTopology() [][]int {
	return nil
}
