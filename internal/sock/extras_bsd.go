//go:build darwin || freebsd || netbsd || openbsd

// File: internal/sock/extras_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The BSDs have neither SO_BUSY_POLL nor TCP_QUICKACK; both requests are
// recorded as skipped so diagnostics can see they did not take effect.

package sock

import "github.com/momentics/hioload-net/api"

func applyPlatformExtras(_ int, st SockType, cfg api.NetConfig, r *reporter) {
	if cfg.BusyPollUS > 0 {
		r.skipped("SO_BUSY_POLL")
	}
	if st == Stream && cfg.TCPQuickAck {
		r.skipped("TCP_QUICKACK")
	}
}
