// File: cmd/netdiag/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// netdiag is the diagnostics companion of the socket runtime: it shows the
// host topology, reports which tuning options a profile can apply on this
// machine, and runs a batched UDP echo loop for latency probing.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-net/api"
)

var rootCmd = &cobra.Command{
	Use:   "netdiag",
	Short: "diagnostics for the hioload-net socket runtime",
	Long: `netdiag inspects how the socket runtime behaves on this host:
which CPUs and NUMA nodes are available, which socket tuning options the
kernel accepts, and how the batched UDP path performs end to end.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// profileConfig resolves a profile name to its tuning preset.
func profileConfig(name string) (api.NetConfig, error) {
	switch name {
	case "default":
		return api.DefaultConfig(), nil
	case "lowlat":
		return api.LowLatency(), nil
	case "throughput":
		return api.HighThroughput(), nil
	case "efficient":
		return api.PowerEfficient(), nil
	}
	return api.NetConfig{}, fmt.Errorf("unknown profile %q (default, lowlat, throughput, efficient)", name)
}
