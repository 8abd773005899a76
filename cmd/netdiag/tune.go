// File: cmd/netdiag/tune.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-net/tcp"
	"github.com/momentics/hioload-net/udp"
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Open a tuned socket and report which options took effect",
	Long: `tune opens a throwaway socket with the selected profile and prints
the per-option outcome: options the kernel accepted versus options this
platform or kernel does not carry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		addr, _ := cmd.Flags().GetString("addr")
		useTCP, _ := cmd.Flags().GetBool("tcp")

		cfg, err := profileConfig(profile)
		if err != nil {
			return err
		}
		local, err := netip.ParseAddrPort(addr)
		if err != nil {
			return fmt.Errorf("parse addr %q: %w", addr, err)
		}

		if useTCP {
			l, err := tcp.Listen(local, cfg)
			if err != nil {
				return err
			}
			defer l.Close()
			rep := l.Report()
			printReport(profile, rep.Applied, rep.Skipped)
			return nil
		}
		s, err := udp.Bind(local, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		rep := s.Report()
		printReport(profile, rep.Applied, rep.Skipped)
		return nil
	},
}

func printReport(profile string, applied, skipped []string) {
	fmt.Printf("profile %s\n", profile)
	fmt.Println("applied:")
	for _, opt := range applied {
		fmt.Printf("  %s\n", opt)
	}
	if len(skipped) > 0 {
		fmt.Println("skipped:")
		for _, opt := range skipped {
			fmt.Printf("  %s\n", opt)
		}
	}
}

func init() {
	tuneCmd.Flags().String("profile", "default", "tuning profile (default, lowlat, throughput, efficient)")
	tuneCmd.Flags().String("addr", "127.0.0.1:0", "local address to bind")
	tuneCmd.Flags().Bool("tcp", false, "probe a TCP listener instead of a UDP socket")
	rootCmd.AddCommand(tuneCmd)
}
