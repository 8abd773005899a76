//go:build linux

// File: internal/sock/extras_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux-only tuning extras. Both are best-effort even on Linux: busy polling
// needs CAP_NET_ADMIN on many kernels and quickack is a transient hint, so a
// refusal is recorded rather than failing the open.

package sock

import (
	"github.com/momentics/hioload-net/api"

	"golang.org/x/sys/unix"
)

func applyPlatformExtras(fd int, st SockType, cfg api.NetConfig, r *reporter) {
	if cfg.BusyPollUS > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BUSY_POLL, cfg.BusyPollUS); err != nil {
			r.skipped("SO_BUSY_POLL")
		} else {
			r.applied("SO_BUSY_POLL")
		}
	}
	if st == Stream && cfg.TCPQuickAck {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1); err != nil {
			r.skipped("TCP_QUICKACK")
		} else {
			r.applied("TCP_QUICKACK")
		}
	}
}
