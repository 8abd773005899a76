// File: internal/sock/sock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral pieces of the raw socket layer: address domains, socket
// kinds and the option report builder shared by every platform backend.

package sock

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
)

// Domain is the IP protocol family of a socket.
type Domain int

const (
	DomainIPv4 Domain = iota
	DomainIPv6
)

// SockType distinguishes stream from datagram sockets.
type SockType int

const (
	Stream SockType = iota
	Dgram
)

// domainOf derives the address family from a concrete address.
func domainOf(ap netip.AddrPort) Domain {
	if ap.Addr().Is4() {
		return DomainIPv4
	}
	return DomainIPv6
}

// reporter accumulates the per-option applied/skipped outcome while a
// descriptor is being configured.
type reporter struct {
	rep api.OptionReport
}

func (r *reporter) applied(name string) {
	r.rep.Applied = append(r.rep.Applied, name)
}

func (r *reporter) skipped(name string) {
	r.rep.Skipped = append(r.rep.Skipped, name)
}

// fatal wraps a rejected supported option; the caller closes the descriptor
// and fails the whole open operation.
func fatal(name string, err error) error {
	return &api.ConfigError{Option: name, Err: err}
}
