// File: tcp/tcp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/sock"
)

// Listener is a tuned nonblocking listening socket. The profile it was
// created with is re-applied to every accepted stream.
type Listener struct {
	h   *sock.Handle
	cfg api.NetConfig
}

// Listen binds a nonblocking listener to local with cfg applied and the
// configured backlog.
func Listen(local netip.AddrPort, cfg api.NetConfig) (*Listener, error) {
	h, err := sock.OpenTCPListener(local, cfg)
	if err != nil {
		return nil, err
	}
	return &Listener{h: h, cfg: cfg}, nil
}

// ListenDualStack binds on [::]:port with IPV6_V6ONLY cleared so IPv4
// clients connect through the same listener. A cfg demanding IPv6ModeOnly
// is rejected.
func ListenDualStack(port uint16, cfg api.NetConfig) (*Listener, error) {
	h, err := sock.OpenTCPListenerDualStack(port, cfg)
	if err != nil {
		return nil, err
	}
	cfg.IPv6Mode = api.IPv6ModeDualStack
	return &Listener{h: h, cfg: cfg}, nil
}

// Accept takes one pending connection without blocking. With nothing queued
// it reports api.ErrWouldBlock. The returned stream is nonblocking and
// carries the listener's tuning; if tuning it fails the connection is closed
// and the error reported instead.
func (l *Listener) Accept() (*Stream, netip.AddrPort, error) {
	h, peer, err := l.h.Accept(l.cfg)
	if err != nil {
		return nil, netip.AddrPort{}, err
	}
	control.AcceptedConns.Inc()
	return &Stream{h: h}, peer, nil
}

// LocalAddr reports the bound address, useful after listening on port 0.
func (l *Listener) LocalAddr() (netip.AddrPort, error) { return l.h.LocalAddr() }

// Report returns which tuning options took effect on the listening socket.
func (l *Listener) Report() api.OptionReport { return l.h.Report() }

// PollFd implements api.Pollable; readable readiness means Accept will
// produce a connection.
func (l *Listener) PollFd() uintptr { return l.h.PollFd() }

// Close releases the listening socket. Double close reports api.ErrClosed.
func (l *Listener) Close() error { return l.h.Close() }

// Stream is a tuned nonblocking TCP connection.
type Stream struct {
	h *sock.Handle
}

// Dial starts a nonblocking connect to remote with cfg applied. When the
// connect cannot finish immediately the stream is returned together with
// api.ErrInProgress; wait for writable readiness and confirm the outcome
// with ConnectResult before using it.
func Dial(remote netip.AddrPort, cfg api.NetConfig) (*Stream, error) {
	h, err := sock.OpenTCPStream(remote, cfg)
	if err != nil {
		if api.IsInProgress(err) {
			return &Stream{h: h}, err
		}
		return nil, err
	}
	return &Stream{h: h}, nil
}

// ConnectResult reads the outcome of an in-progress connect. nil means the
// stream is established; api.ErrInProgress means keep waiting.
func (s *Stream) ConnectResult() error { return s.h.ConnectResult() }

// Read performs one nonblocking read. A zero count with a nil error means
// the peer closed the stream; an empty receive queue reports
// api.ErrWouldBlock.
func (s *Stream) Read(p []byte) (int, error) { return s.h.Read(p) }

// Write performs one nonblocking write and returns how many bytes the
// kernel accepted, which may be fewer than len(p). A full send queue
// reports api.ErrWouldBlock.
func (s *Stream) Write(p []byte) (int, error) { return s.h.Write(p) }

// LocalAddr reports the locally bound address.
func (s *Stream) LocalAddr() (netip.AddrPort, error) { return s.h.LocalAddr() }

// Report returns which tuning options took effect on this stream.
func (s *Stream) Report() api.OptionReport { return s.h.Report() }

// PollFd implements api.Pollable.
func (s *Stream) PollFd() uintptr { return s.h.PollFd() }

// Close releases the stream. Double close reports api.ErrClosed.
func (s *Stream) Close() error { return s.h.Close() }
