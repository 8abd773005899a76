//go:build unix

// File: internal/sock/sockaddr_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conversions between netip.AddrPort and the kernel sockaddr forms. This is
// the only place address representations cross the syscall boundary.

package sock

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

func toSockaddr(ap netip.AddrPort) unix.Sockaddr {
	a := ap.Addr()
	if a.Is4() {
		sa := &unix.SockaddrInet4{Port: int(ap.Port())}
		sa.Addr = a.As4()
		return sa
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port())}
	sa.Addr = a.As16()
	return sa
}

// fromSockaddr converts a kernel sockaddr to netip. IPv4-mapped senders seen
// through dual-stack sockets are unmapped so comparisons against plain IPv4
// addresses behave naturally.
func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(s.Addr), uint16(s.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(s.Addr).Unmap(), uint16(s.Port))
	}
	return netip.AddrPort{}
}
