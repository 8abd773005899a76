// File: cmd/netdiag/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-net/affinity"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print logical CPUs grouped by NUMA node",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("logical CPUs: %d\n", affinity.CPUCount())
		nodes := affinity.NUMATopology()
		fmt.Printf("NUMA nodes:   %d\n", len(nodes))
		for i, cpus := range nodes {
			fmt.Printf("  node %d: %v\n", i, cpus)
		}
	},
}

func init() {
	rootCmd.AddCommand(topologyCmd)
}
