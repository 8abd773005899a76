//go:build unix

// File: internal/sock/opts_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared POSIX option application. The application order follows the original
// tuning pipeline: buffer sizes first, then QoS marking, IPv6 behaviour,
// port sharing, the Linux-only extras, and TCP_NODELAY last.

package sock

import (
	"github.com/momentics/hioload-net/api"

	"golang.org/x/sys/unix"
)

// applyOptions maps cfg onto the descriptor. Options this platform lacks are
// recorded as skipped; options it has but the kernel rejects abort the whole
// operation (the caller closes fd).
func applyOptions(fd int, domain Domain, st SockType, cfg api.NetConfig) (api.OptionReport, error) {
	var r reporter

	if cfg.RecvBuf > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBuf); err != nil {
			return r.rep, fatal("SO_RCVBUF", err)
		}
		r.applied("SO_RCVBUF")
	}
	if cfg.SendBuf > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBuf); err != nil {
			return r.rep, fatal("SO_SNDBUF", err)
		}
		r.applied("SO_SNDBUF")
	}

	if cfg.TOS != 0 {
		if domain == DomainIPv4 {
			if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, cfg.TOS); err != nil {
				return r.rep, fatal("IP_TOS", err)
			}
			r.applied("IP_TOS")
		} else {
			if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, cfg.TOS); err != nil {
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
			if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, only); err != nil {
				return r.rep, fatal("IPV6_V6ONLY", err)
			}
			r.applied("IPV6_V6ONLY")
		}
		if cfg.HopLimit > 0 {
			if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS, cfg.HopLimit); err != nil {
				return r.rep, fatal("IPV6_UNICAST_HOPS", err)
			}
			r.applied("IPV6_UNICAST_HOPS")
		}
	}

	if cfg.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return r.rep, fatal("SO_REUSEPORT", err)
		}
		r.applied("SO_REUSEPORT")
	}

	applyPlatformExtras(fd, st, cfg, &r)

	if st == Stream && cfg.TCPNoDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return r.rep, fatal("TCP_NODELAY", err)
		}
		r.applied("TCP_NODELAY")
	}

	return r.rep, nil
}
