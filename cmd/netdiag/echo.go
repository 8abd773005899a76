// File: cmd/netdiag/echo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Batched UDP echo loop: one pinned goroutine, one tuned socket, one
// readiness bridge, pooled buffers. On shutdown the runtime counters go to
// stdout in Prometheus text format.

package main

import (
	"log"
	"net/netip"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-net/affinity"
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/poller"
	"github.com/momentics/hioload-net/pool"
	"github.com/momentics/hioload-net/udp"
)

const echoToken = api.Token(1)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run a batched UDP echo server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addrStr, _ := cmd.Flags().GetString("addr")
		profile, _ := cmd.Flags().GetString("profile")
		batch, _ := cmd.Flags().GetInt("batch")
		bufSize, _ := cmd.Flags().GetInt("bufsize")
		pin, _ := cmd.Flags().GetInt("pin")

		cfg, err := profileConfig(profile)
		if err != nil {
			return err
		}
		local, err := netip.ParseAddrPort(addrStr)
		if err != nil {
			return err
		}

		settings := control.NewSettingsStore()
		if batch > 0 {
			next := settings.Snapshot()
			next.RecvBatchSize = batch
			settings.Update(next)
		}

		if pin >= 0 {
			if err := affinity.PinToCPU(pin); err != nil {
				log.Printf("pin to cpu %d: %v", pin, err)
			}
		}

		s, err := udp.Bind(local, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		la, err := s.LocalAddr()
		if err != nil {
			return err
		}
		log.Printf("echo listening on %s (profile %s)", la, profile)

		p, err := poller.New()
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.Register(s, echoToken, api.Readable); err != nil {
			return err
		}
		defer p.Deregister(echoToken)

		snap := settings.Snapshot()
		bp := pool.NewBufferPool(snap.RecvBatchSize, bufSize)
		bufs := bp.AcquireBatch(snap.RecvBatchSize)
		addrs := make([]netip.AddrPort, len(bufs))

		var stopped atomic.Bool
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			stopped.Store(true)
		}()

		for !stopped.Load() {
			_, err := p.Poll(snap.PollTimeout, func(ev api.Event) {
				if ev.Ready&api.Readable == 0 {
					return
				}
				// Edge-triggered delivery: drain until would-block.
				for {
					n, rerr := s.RecvBatch(bufs, addrs)
					if rerr != nil {
						if !api.IsWouldBlock(rerr) {
							log.Printf("recv batch: %v", rerr)
						}
						return
					}
					if _, serr := s.SendBatch(bufs[:n], addrs[:n]); serr != nil {
						if !api.IsWouldBlock(serr) {
							log.Printf("send batch: %v", serr)
						}
						return
					}
				}
			})
			if err != nil {
				return err
			}
		}

		log.Println("shutdown, final counters:")
		control.WritePrometheus(os.Stdout)
		return nil
	},
}

func init() {
	echoCmd.Flags().String("addr", "127.0.0.1:9100", "local address to serve on")
	echoCmd.Flags().String("profile", "lowlat", "tuning profile (default, lowlat, throughput, efficient)")
	echoCmd.Flags().Int("batch", 0, "datagrams per receive batch (0 uses the runtime default)")
	echoCmd.Flags().Int("bufsize", 2048, "bytes per pooled buffer")
	echoCmd.Flags().Int("pin", -1, "logical CPU to pin the echo loop to (-1 disables)")
	rootCmd.AddCommand(echoCmd)
}
