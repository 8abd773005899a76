// File: udp/udp.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral surface of the datagram engine. The batched transfers
// delegate to per-platform fast paths in batch_*.go.

package udp

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/sock"
	"github.com/momentics/hioload-net/pool"
)

// Socket is a tuned nonblocking UDP endpoint. It is single-owner: one
// goroutine drives it, usually off poller readiness.
type Socket struct {
	h  *sock.Handle
	bs batchState
}

// Bind creates a Socket bound to local with cfg applied to the descriptor.
// Binding port 0 picks an ephemeral port; read it back with LocalAddr.
func Bind(local netip.AddrPort, cfg api.NetConfig) (*Socket, error) {
	h, err := sock.OpenUDP(local, cfg)
	if err != nil {
		return nil, err
	}
	return &Socket{h: h}, nil
}

// BindDualStack binds on [::]:port with IPV6_V6ONLY cleared, so both IPv6
// and IPv4-mapped senders reach the socket. A cfg demanding IPv6ModeOnly
// contradicts the operation and is rejected.
func BindDualStack(port uint16, cfg api.NetConfig) (*Socket, error) {
	h, err := sock.OpenUDPDualStack(port, cfg)
	if err != nil {
		return nil, err
	}
	return &Socket{h: h}, nil
}

// RecvBatch fills up to len(bufs) datagrams into the supplied buffers and
// records each sender in the matching addrs slot. It returns how many
// buffers were filled; buffers past the count are untouched. With nothing
// queued it reports api.ErrWouldBlock. The two slices must be the same
// length.
func (s *Socket) RecvBatch(bufs []*pool.Buffer, addrs []netip.AddrPort) (int, error) {
	if len(bufs) != len(addrs) {
		return 0, api.ErrMismatchedBatch
	}
	if len(bufs) == 0 {
		return 0, nil
	}
	n, err := s.recvBatch(bufs, addrs)
	if err != nil {
		return 0, err
	}
	control.RecvBatches.Inc()
	control.DatagramsReceived.Add(n)
	return n, nil
}

// SendTo transmits one datagram to the given destination. A datagram the
// kernel truncates is reported as api.ErrShortWrite.
func (s *Socket) SendTo(p []byte, to netip.AddrPort) error {
	n, err := s.h.SendTo(p, to)
	if err != nil {
		return err
	}
	if n != len(p) {
		return api.ErrShortWrite
	}
	control.DatagramsSent.Inc()
	return nil
}

// SendBatch transmits bufs[i] to addrs[i] in order and returns how many
// datagrams the kernel accepted. A full send queue stops the batch early
// with a nil error when at least one datagram went out, or with
// api.ErrWouldBlock when none did. The two slices must be the same length.
func (s *Socket) SendBatch(bufs []*pool.Buffer, addrs []netip.AddrPort) (int, error) {
	if len(bufs) != len(addrs) {
		return 0, api.ErrMismatchedBatch
	}
	if len(bufs) == 0 {
		return 0, nil
	}
	n, err := s.sendBatch(bufs, addrs)
	if n > 0 {
		control.DatagramsSent.Add(n)
	}
	if err != nil && n > 0 && api.IsWouldBlock(err) {
		return n, nil
	}
	return n, err
}

// LocalAddr reports the bound address.
func (s *Socket) LocalAddr() (netip.AddrPort, error) { return s.h.LocalAddr() }

// Report returns which tuning options took effect on this descriptor.
func (s *Socket) Report() api.OptionReport { return s.h.Report() }

// PollFd implements api.Pollable so the socket registers with a poller.
func (s *Socket) PollFd() uintptr { return s.h.PollFd() }

// Close releases the descriptor. Double close reports api.ErrClosed.
func (s *Socket) Close() error { return s.h.Close() }
