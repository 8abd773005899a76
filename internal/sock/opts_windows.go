//go:build windows

// File: internal/sock/opts_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WinSock option application. SO_REUSEPORT, SO_BUSY_POLL and TCP_QUICKACK do
// not exist here; requests for them are recorded as skipped.

package sock

import (
	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-net/api"
)

// ws2ipdef.h option numbers x/sys/windows does not carry.
const (
	sockoptIPTOS           = 3  // IP_TOS
	sockoptIPv6UnicastHops = 4  // IPV6_UNICAST_HOPS
	sockoptIPv6TClass      = 39 // IPV6_TCLASS
)

func applyOptions(fd windows.Handle, domain Domain, st SockType, cfg api.NetConfig) (api.OptionReport, error) {
	var r reporter

	if cfg.RecvBuf > 0 {
		if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_RCVBUF, cfg.RecvBuf); err != nil {
			return r.rep, fatal("SO_RCVBUF", err)
		}
		r.applied("SO_RCVBUF")
	}
	if cfg.SendBuf > 0 {
		if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_SNDBUF, cfg.SendBuf); err != nil {
			return r.rep, fatal("SO_SNDBUF", err)
		}
		r.applied("SO_SNDBUF")
	}

	if cfg.TOS != 0 {
		if domain == DomainIPv4 {
			if err := windows.SetsockoptInt(fd, windows.IPPROTO_IP, sockoptIPTOS, cfg.TOS); err != nil {
				return r.rep, fatal("IP_TOS", err)
			}
			r.applied("IP_TOS")
		} else {
			if err := windows.SetsockoptInt(fd, windows.IPPROTO_IPV6, sockoptIPv6TClass, cfg.TOS); err != nil {
				return r.rep, fatal("IPV6_TCLASS", err)
			}
			r.applied("IPV6_TCLASS")
		}
	}

	if domain == DomainIPv6 {
		if cfg.IPv6Mode != api.IPv6ModeDefault {
			only := 0
			if cfg.IPv6Mode == api.IPv6ModeOnly {
				only = 1
			}
			if err := windows.SetsockoptInt(fd, windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, only); err != nil {
				return r.rep, fatal("IPV6_V6ONLY", err)
			}
			r.applied("IPV6_V6ONLY")
		}
		if cfg.HopLimit > 0 {
			if err := windows.SetsockoptInt(fd, windows.IPPROTO_IPV6, sockoptIPv6UnicastHops, cfg.HopLimit); err != nil {
				return r.rep, fatal("IPV6_UNICAST_HOPS", err)
			}
			r.applied("IPV6_UNICAST_HOPS")
		}
	}

	if cfg.ReusePort {
		r.skipped("SO_REUSEPORT")
	}
	if cfg.BusyPollUS > 0 {
		r.skipped("SO_BUSY_POLL")
	}
	if st == Stream && cfg.TCPQuickAck {
		r.skipped("TCP_QUICKACK")
	}

	if st == Stream && cfg.TCPNoDelay {
		if err := windows.SetsockoptInt(fd, windows.IPPROTO_TCP, windows.TCP_NODELAY, 1); err != nil {
			return r.rep, fatal("TCP_NODELAY", err)
		}
		r.applied("TCP_NODELAY")
	}

	return r.rep, nil
}
