//go:build !linux

// File: udp/batch_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable batch paths: a bounded nonblocking loop over single-datagram
// syscalls with the same observable semantics as the Linux msgvec calls. A
// batch stops at the first would-block and reports what it moved so far.

package udp

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/pool"
)

type batchState struct{}

func (s *Socket) recvBatch(bufs []*pool.Buffer, addrs []netip.AddrPort) (int, error) {
	n := 0
	for i := range bufs {
		cnt, from, err := s.h.RecvFrom(bufs[i].Raw())
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		bufs[i].SetLen(cnt)
		addrs[i] = from
		n++
	}
	return n, nil
}

func (s *Socket) sendBatch(bufs []*pool.Buffer, addrs []netip.AddrPort) (int, error) {
	n := 0
	for i := range bufs {
		p := bufs[i].Bytes()
		cnt, err := s.h.SendTo(p, addrs[i])
		if err != nil {
			if n > 0 && api.IsWouldBlock(err) {
				return n, nil
			}
			return n, err
		}
		if cnt != len(p) {
			return n, api.ErrShortWrite
		}
		n++
	}
	return n, nil
}
