//go:build unix

// File: internal/sock/sock_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// POSIX implementation of the raw socket layer. Descriptor creation and the
// nonblocking switch are delegated to per-OS files (SOCK_NONBLOCK on Linux,
// fcntl on the BSDs); everything else is shared.

package sock

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-net/api"
)

// Handle owns exactly one native descriptor. It is created nonblocking and
// must be closed exactly once; Close on an already-closed handle reports
// api.ErrClosed instead of touching a reused descriptor number.
type Handle struct {
	fd     int
	domain Domain
	report api.OptionReport
	closed bool
}

// Fd exposes the native descriptor for the batched I/O fast paths.
func (h *Handle) Fd() int { return h.fd }

// PollFd implements api.Pollable.
func (h *Handle) PollFd() uintptr { return uintptr(h.fd) }

// Report returns which tuning options were applied vs skipped on this host.
func (h *Handle) Report() api.OptionReport { return h.report }

// Close releases the descriptor. Double close is rejected, not forwarded to
// the kernel.
func (h *Handle) Close() error {
	if h.closed {
		return api.ErrClosed
	}
	h.closed = true
	return unix.Close(h.fd)
}

// OpenUDP creates a nonblocking UDP socket bound to local with cfg applied.
func OpenUDP(local netip.AddrPort, cfg api.NetConfig) (*Handle, error) {
	return open(local, Dgram, cfg)
}

// OpenUDPDualStack binds a nonblocking IPv6 UDP socket on [::]:port with
// IPV6_V6ONLY cleared so IPv4-mapped senders reach it. A descriptor that
// explicitly demands IPv6ModeOnly contradicts the operation and is rejected.
func OpenUDPDualStack(port uint16, cfg api.NetConfig) (*Handle, error) {
	return openDualStack(port, Dgram, cfg)
}

// OpenTCPListener creates a nonblocking listener bound to local with cfg
// applied and the configured backlog.
func OpenTCPListener(local netip.AddrPort, cfg api.NetConfig) (*Handle, error) {
	h, err := open(local, Stream, cfg)
	if err != nil {
		return nil, err
	}
	if err := unix.Listen(h.fd, backlog(cfg)); err != nil {
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
	if err := unix.Listen(h.fd, backlog(cfg)); err != nil {
		h.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}
	return h, nil
}

// OpenTCPStream starts a nonblocking connect to remote. When the connect
// cannot complete immediately the handle is returned together with
// api.ErrInProgress; completion is observed through writable readiness and
// confirmed with ConnectResult.
func OpenTCPStream(remote netip.AddrPort, cfg api.NetConfig) (*Handle, error) {
	domain := domainOf(remote)
	h, err := newConfigured(domain, Stream, cfg)
	if err != nil {
		return nil, err
	}
	sa := toSockaddr(remote)
	for {
		err = unix.Connect(h.fd, sa)
		if err == nil {
			return h, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EINPROGRESS) {
			return h, api.ErrInProgress
		}
		h.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
}

// ConnectResult reads SO_ERROR after a writable-readiness event to learn the
// outcome of an in-progress connect. nil means the stream is established.
func (h *Handle) ConnectResult() error {
	soerr, err := unix.GetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return fmt.Errorf("getsockopt SO_ERROR: %w", err)
	}
	if soerr == 0 {
		return nil
	}
	errno := unix.Errno(soerr)
	if errno == unix.EINPROGRESS || errno == unix.EALREADY {
		return api.ErrInProgress
	}
	return fmt.Errorf("connect: %w", errno)
}

// Accept takes one pending connection off a listener without blocking. The
// accepted stream comes back nonblocking with the same tuning applied as the
// listener's descriptor requested; if tuning the accepted descriptor fails it
// is closed and no stream escapes.
func (h *Handle) Accept(cfg api.NetConfig) (*Handle, netip.AddrPort, error) {
	// The accepted descriptor has the listener's family regardless of how
	// the peer address renders (v4-mapped peers unmap to plain IPv4).
	// IPV6_V6ONLY is a bind-time property the descriptor inherits; the
	// kernel rejects re-applying it to a connected socket.
	cfg.IPv6Mode = api.IPv6ModeDefault
	for {
		fd, sa, err := acceptNonblock(h.fd)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil, netip.AddrPort{}, api.ErrWouldBlock
			}
			return nil, netip.AddrPort{}, fmt.Errorf("accept: %w", err)
		}
		peer := fromSockaddr(sa)
		rep, aerr := applyOptions(fd, h.domain, Stream, cfg)
		if aerr != nil {
			unix.Close(fd)
			return nil, netip.AddrPort{}, aerr
		}
		return &Handle{fd: fd, domain: h.domain, report: rep}, peer, nil
	}
}

// Read performs one nonblocking read on a stream.
func (h *Handle) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(h.fd, p)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return 0, TranslateErrno(err)
	}
}

// Write performs one nonblocking write on a stream.
func (h *Handle) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(h.fd, p)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return 0, TranslateErrno(err)
	}
}

// RecvFrom receives one datagram without blocking.
func (h *Handle) RecvFrom(p []byte) (int, netip.AddrPort, error) {
	for {
		n, sa, err := unix.Recvfrom(h.fd, p, 0)
		if err == nil {
			return n, fromSockaddr(sa), nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return 0, netip.AddrPort{}, TranslateErrno(err)
	}
}

// SendTo sends one datagram without blocking and returns the byte count the
// kernel accepted.
func (h *Handle) SendTo(p []byte, to netip.AddrPort) (int, error) {
	sa := toSockaddr(to)
	for {
		err := unix.Sendto(h.fd, p, 0, sa)
		if err == nil {
			return len(p), nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return 0, TranslateErrno(err)
	}
}

// LocalAddr reports the bound address, useful after binding port 0.
func (h *Handle) LocalAddr() (netip.AddrPort, error) {
	sa, err := unix.Getsockname(h.fd)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	return fromSockaddr(sa), nil
}

// TranslateErrno maps platform error codes onto the api taxonomy. It is the
// only place errno values are interpreted; the batched fast paths reuse it.
func TranslateErrno(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		return api.ErrWouldBlock
	case errors.Is(err, unix.EINPROGRESS):
		return api.ErrInProgress
	}
	return err
}

func open(local netip.AddrPort, st SockType, cfg api.NetConfig) (*Handle, error) {
	domain := domainOf(local)
	h, err := newConfigured(domain, st, cfg)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(h.fd, toSockaddr(local)); err != nil {
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
	sa := &unix.SockaddrInet6{Port: int(port)}
	if err := unix.Bind(h.fd, sa); err != nil {
		h.Close()
		return nil, fmt.Errorf("bind [::]:%d: %w", port, err)
	}
	return h, nil
}

// newConfigured creates a nonblocking descriptor and applies cfg. On any
// configuration failure the descriptor is released before returning.
func newConfigured(domain Domain, st SockType, cfg api.NetConfig) (*Handle, error) {
	fd, err := newSocket(domain, st)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	rep, err := applyOptions(fd, domain, st, cfg)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Handle{fd: fd, domain: domain, report: rep}, nil
}

func backlog(cfg api.NetConfig) int {
	if cfg.TCPBacklog > 0 {
		return cfg.TCPBacklog
	}
	return 1024
}

func af(domain Domain) int {
	if domain == DomainIPv6 {
		return unix.AF_INET6
	}
	return unix.AF_INET
}

func sotype(st SockType) int {
	if st == Stream {
		return unix.SOCK_STREAM
	}
	return unix.SOCK_DGRAM
}
