//go:build windows

// File: internal/sock/sock_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WinSock implementation of the raw socket layer. WSA is initialized once per
// process; ws2_32 entry points missing from x/sys/windows (accept,
// ioctlsocket) are loaded lazily from the system DLL.

package sock

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-net/api"
)

var (
	ws2_32         = windows.NewLazySystemDLL("ws2_32.dll")
	procAccept     = ws2_32.NewProc("accept")
	procIoctl      = ws2_32.NewProc("ioctlsocket")
	wsaStartupOnce sync.Once
)

// winsock2.h FIONBIO, absent from x/sys/windows.
const fionbio = 0x8004667e

func ensureWSA() {
	wsaStartupOnce.Do(func() {
		var data windows.WSAData
		_ = windows.WSAStartup(uint32(0x202), &data)
	})
}

// Handle owns exactly one WinSock descriptor, created nonblocking. Double
// close is rejected instead of being forwarded to a reused handle value.
type Handle struct {
	fd     windows.Handle
	domain Domain
	report api.OptionReport
	closed bool
}

// Fd exposes the native socket handle.
func (h *Handle) Fd() windows.Handle { return h.fd }

// PollFd implements api.Pollable.
func (h *Handle) PollFd() uintptr { return uintptr(h.fd) }

// Report returns which tuning options were applied vs skipped on this host.
func (h *Handle) Report() api.OptionReport { return h.report }

// Close releases the descriptor exactly once.
func (h *Handle) Close() error {
	if h.closed {
		return api.ErrClosed
	}
	h.closed = true
	return windows.Closesocket(h.fd)
}

// OpenUDP creates a nonblocking UDP socket bound to local with cfg applied.
func OpenUDP(local netip.AddrPort, cfg api.NetConfig) (*Handle, error) {
	return open(local, Dgram, cfg)
}

// OpenUDPDualStack binds a nonblocking IPv6 UDP socket on [::]:port with
// IPV6_V6ONLY cleared. An explicit IPv6ModeOnly request is rejected.
func OpenUDPDualStack(port uint16, cfg api.NetConfig) (*Handle, error) {
	return openDualStack(port, Dgram, cfg)
}

// OpenTCPListener creates a nonblocking listener bound to local.
func OpenTCPListener(local netip.AddrPort, cfg api.NetConfig) (*Handle, error) {
	h, err := open(local, Stream, cfg)
	if err != nil {
		return nil, err
	}
	if err := windows.Listen(h.fd, backlog(cfg)); err != nil {
		h.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}
	return h, nil
}

// OpenTCPListenerDualStack is the listener counterpart of OpenUDPDualStack.
func OpenTCPListenerDualStack(port uint16, cfg api.NetConfig) (*Handle, error) {
	h, err := openDualStack(port, Stream, cfg)
	if err != nil {
		return nil, err
	}
	if err := windows.Listen(h.fd, backlog(cfg)); err != nil {
		h.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}
	return h, nil
}

// OpenTCPStream starts a nonblocking connect. WSAEWOULDBLOCK from connect on
// a nonblocking WinSock socket is the in-progress signal.
func OpenTCPStream(remote netip.AddrPort, cfg api.NetConfig) (*Handle, error) {
	h, err := newConfigured(domainOf(remote), Stream, cfg)
	if err != nil {
		return nil, err
	}
	err = windows.Connect(h.fd, toSockaddr(remote))
	if err == nil {
		return h, nil
	}
	if errors.Is(err, windows.WSAEWOULDBLOCK) || errors.Is(err, windows.WSAEINPROGRESS) {
		return h, api.ErrInProgress
	}
	h.Close()
	return nil, fmt.Errorf("connect: %w", err)
}

// ConnectResult reads SO_ERROR after writable readiness to learn the outcome
// of an in-progress connect.
func (h *Handle) ConnectResult() error {
	soerr, err := windows.GetsockoptInt(h.fd, windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return fmt.Errorf("getsockopt SO_ERROR: %w", err)
	}
	if soerr == 0 {
		return nil
	}
	return fmt.Errorf("connect: %w", syscall.Errno(soerr))
}

// Accept takes one pending connection without blocking and applies the same
// tuning to the accepted stream.
func (h *Handle) Accept(cfg api.NetConfig) (*Handle, netip.AddrPort, error) {
	// The accepted descriptor has the listener's family regardless of how
	// the peer address renders (v4-mapped peers unmap to plain IPv4).
	// IPV6_V6ONLY is a bind-time property the descriptor inherits.
	cfg.IPv6Mode = api.IPv6ModeDefault
	var rsa windows.RawSockaddrAny
	rsaLen := int32(unsafe.Sizeof(rsa))
	nfd, _, callErr := procAccept.Call(
		uintptr(h.fd),
		uintptr(unsafe.Pointer(&rsa)),
		uintptr(unsafe.Pointer(&rsaLen)),
	)
	if windows.Handle(nfd) == windows.InvalidHandle {
		if errno, ok := callErr.(syscall.Errno); ok && errno == windows.WSAEWOULDBLOCK {
			return nil, netip.AddrPort{}, api.ErrWouldBlock
		}
		return nil, netip.AddrPort{}, fmt.Errorf("accept: %w", callErr)
	}
	fd := windows.Handle(nfd)
	if err := setNonblock(fd); err != nil {
		windows.Closesocket(fd)
		return nil, netip.AddrPort{}, err
	}
	sa, err := rsa.Sockaddr()
	if err != nil {
		windows.Closesocket(fd)
		return nil, netip.AddrPort{}, fmt.Errorf("accept sockaddr: %w", err)
	}
	peer := fromSockaddr(sa)
	rep, aerr := applyOptions(fd, h.domain, Stream, cfg)
	if aerr != nil {
		windows.Closesocket(fd)
		return nil, netip.AddrPort{}, aerr
	}
	return &Handle{fd: fd, domain: h.domain, report: rep}, peer, nil
}

// Read performs one nonblocking read on a stream.
func (h *Handle) Read(p []byte) (int, error) {
	buf := windows.WSABuf{Len: uint32(len(p))}
	if len(p) > 0 {
		buf.Buf = &p[0]
	}
	var n, flags uint32
	err := windows.WSARecv(h.fd, &buf, 1, &n, &flags, nil, nil)
	if err != nil {
		return 0, TranslateErrno(err)
	}
	return int(n), nil
}

// Write performs one nonblocking write on a stream.
func (h *Handle) Write(p []byte) (int, error) {
	buf := windows.WSABuf{Len: uint32(len(p))}
	if len(p) > 0 {
		buf.Buf = &p[0]
	}
	var n uint32
	err := windows.WSASend(h.fd, &buf, 1, &n, 0, nil, nil)
	if err != nil {
		return 0, TranslateErrno(err)
	}
	return int(n), nil
}

// RecvFrom receives one datagram without blocking.
func (h *Handle) RecvFrom(p []byte) (int, netip.AddrPort, error) {
	buf := windows.WSABuf{Len: uint32(len(p))}
	if len(p) > 0 {
		buf.Buf = &p[0]
	}
	var n, flags uint32
	var rsa windows.RawSockaddrAny
	rsaLen := int32(unsafe.Sizeof(rsa))
	err := windows.WSARecvFrom(h.fd, &buf, 1, &n, &flags, &rsa, &rsaLen, nil, nil)
	if err != nil {
		return 0, netip.AddrPort{}, TranslateErrno(err)
	}
	sa, err := rsa.Sockaddr()
	if err != nil {
		return 0, netip.AddrPort{}, fmt.Errorf("recvfrom sockaddr: %w", err)
	}
	return int(n), fromSockaddr(sa), nil
}

// SendTo sends one datagram without blocking.
func (h *Handle) SendTo(p []byte, to netip.AddrPort) (int, error) {
	buf := windows.WSABuf{Len: uint32(len(p))}
	if len(p) > 0 {
		buf.Buf = &p[0]
	}
	var n uint32
	err := windows.WSASendto(h.fd, &buf, 1, &n, 0, toSockaddr(to), nil, nil)
	if err != nil {
		return 0, TranslateErrno(err)
	}
	return int(n), nil
}

// LocalAddr reports the bound address, useful after binding port 0.
func (h *Handle) LocalAddr() (netip.AddrPort, error) {
	sa, err := windows.Getsockname(h.fd)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	return fromSockaddr(sa), nil
}

// TranslateErrno maps WinSock error codes onto the api taxonomy.
func TranslateErrno(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, windows.WSAEWOULDBLOCK):
		return api.ErrWouldBlock
	case errors.Is(err, windows.WSAEINPROGRESS):
		return api.ErrInProgress
	}
	return err
}

func open(local netip.AddrPort, st SockType, cfg api.NetConfig) (*Handle, error) {
	h, err := newConfigured(domainOf(local), st, cfg)
	if err != nil {
		return nil, err
	}
	if err := windows.Bind(h.fd, toSockaddr(local)); err != nil {
		h.Close()
		return nil, fmt.Errorf("bind %s: %w", local, err)
	}
	return h, nil
}

func openDualStack(port uint16, st SockType, cfg api.NetConfig) (*Handle, error) {
	if cfg.IPv6Mode == api.IPv6ModeOnly {
		return nil, fmt.Errorf("dual-stack bind with IPv6ModeOnly: %w", api.ErrInvalidConfig)
	}
	cfg.IPv6Mode = api.IPv6ModeDualStack
	h, err := newConfigured(DomainIPv6, st, cfg)
	if err != nil {
		return nil, err
	}
	sa := &windows.SockaddrInet6{Port: int(port)}
	if err := windows.Bind(h.fd, sa); err != nil {
		h.Close()
		return nil, fmt.Errorf("bind [::]:%d: %w", port, err)
	}
	return h, nil
}

func newConfigured(domain Domain, st SockType, cfg api.NetConfig) (*Handle, error) {
	ensureWSA()
	fd, err := windows.WSASocket(int32(af(domain)), int32(sotype(st)), 0, nil, 0,
		windows.WSA_FLAG_OVERLAPPED|windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := setNonblock(fd); err != nil {
		windows.Closesocket(fd)
		return nil, err
	}
	rep, err := applyOptions(fd, domain, st, cfg)
	if err != nil {
		windows.Closesocket(fd)
		return nil, err
	}
	return &Handle{fd: fd, domain: domain, report: rep}, nil
}

func setNonblock(fd windows.Handle) error {
	nb := uint32(1)
	rc, _, callErr := procIoctl.Call(
		uintptr(fd),
		uintptr(fionbio),
		uintptr(unsafe.Pointer(&nb)),
	)
	if rc != 0 {
		return fmt.Errorf("ioctlsocket FIONBIO: %w", callErr)
	}
	return nil
}

func toSockaddr(ap netip.AddrPort) windows.Sockaddr {
	a := ap.Addr()
	if a.Is4() {
		sa := &windows.SockaddrInet4{Port: int(ap.Port())}
		sa.Addr = a.As4()
		return sa
	}
	sa := &windows.SockaddrInet6{Port: int(ap.Port())}
	sa.Addr = a.As16()
	return sa
}

func fromSockaddr(sa windows.Sockaddr) netip.AddrPort {
	switch s := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(s.Addr), uint16(s.Port))
	case *windows.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(s.Addr).Unmap(), uint16(s.Port))
	}
	return netip.AddrPort{}
}

func backlog(cfg api.NetConfig) int {
	if cfg.TCPBacklog > 0 {
		return cfg.TCPBacklog
	}
	return 1024
}

func af(domain Domain) int {
	if domain == DomainIPv6 {
		return windows.AF_INET6
	}
	return windows.AF_INET
}

func sotype(st SockType) int {
	if st == Stream {
		return windows.SOCK_STREAM
	}
	return windows.SOCK_DGRAM
}
