// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package udp

import (
	"bytes"
	"net/netip"
	"testing"
	"time"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/pool"
)

func loopback(t *testing.T) *Socket {
	t.Helper()
	cfg := api.DefaultConfig()
	cfg.ReusePort = false
	s, err := Bind(netip.MustParseAddrPort("127.0.0.1:0"), cfg)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// waitRecv retries a nonblocking receive until data arrives or the deadline
// passes, since loopback delivery is asynchronous.
func waitRecv(t *testing.T, s *Socket, bufs []*pool.Buffer, addrs []netip.AddrPort) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := s.RecvBatch(bufs, addrs)
		if err == nil {
			return n
		}
		if !api.IsWouldBlock(err) {
			t.Fatalf("recv batch: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for datagram")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRecvBatch_SingleDatagram(t *testing.T) {
	recv := loopback(t)
	send := loopback(t)
	dst, err := recv.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}

	payload := []byte("ping-pong!")
	if err := send.SendTo(payload, dst); err != nil {
		t.Fatalf("send: %v", err)
	}

	bp := pool.NewBufferPool(4, 2048)
	bufs := bp.AcquireBatch(4)
	addrs := make([]netip.AddrPort, len(bufs))

	n := waitRecv(t, recv, bufs, addrs)
	if n != 1 {
		t.Fatalf("recv count = %d, want 1", n)
	}
	if !bytes.Equal(bufs[0].Bytes(), payload) {
		t.Errorf("payload = %q, want %q", bufs[0].Bytes(), payload)
	}
	src, err := send.LocalAddr()
	if err != nil {
		t.Fatalf("sender addr: %v", err)
	}
	if addrs[0] != src {
		t.Errorf("sender = %s, want %s", addrs[0], src)
	}
	// Untouched slots keep zero length.
	for i := 1; i < len(bufs); i++ {
		if bufs[i].Len() != 0 {
			t.Errorf("slot %d length = %d, want 0", i, bufs[i].Len())
		}
	}
}

func TestRecvBatch_MismatchedSlices(t *testing.T) {
	s := loopback(t)
	bp := pool.NewBufferPool(2, 512)
	bufs := bp.AcquireBatch(2)
	addrs := make([]netip.AddrPort, 1)
	if _, err := s.RecvBatch(bufs, addrs); err != api.ErrMismatchedBatch {
		t.Fatalf("err = %v, want ErrMismatchedBatch", err)
	}
	if _, err := s.SendBatch(bufs, addrs); err != api.ErrMismatchedBatch {
		t.Fatalf("send err = %v, want ErrMismatchedBatch", err)
	}
}

func TestRecvBatch_EmptyQueueWouldBlock(t *testing.T) {
	s := loopback(t)
	bp := pool.NewBufferPool(2, 512)
	bufs := bp.AcquireBatch(2)
	addrs := make([]netip.AddrPort, len(bufs))
	if _, err := s.RecvBatch(bufs, addrs); !api.IsWouldBlock(err) {
		t.Fatalf("empty queue err = %v, want would-block", err)
	}
}

func TestSendBatch_RoundTrip(t *testing.T) {
	recv := loopback(t)
	send := loopback(t)
	dst, err := recv.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}

	const count = 8
	bp := pool.NewBufferPool(count, 512)
	out := bp.AcquireBatch(count)
	dests := make([]netip.AddrPort, count)
	for i, b := range out {
		raw := b.Raw()
		raw[0] = byte(i)
		b.SetLen(1 + i)
		dests[i] = dst
	}
	sent, err := send.SendBatch(out, dests)
	if err != nil {
		t.Fatalf("send batch: %v", err)
	}
	if sent != count {
		t.Fatalf("sent = %d, want %d", sent, count)
	}

	inPool := pool.NewBufferPool(count, 512)
	in := inPool.AcquireBatch(count)
	addrs := make([]netip.AddrPort, count)
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < count && time.Now().Before(deadline) {
		n, rerr := recv.RecvBatch(in[:count-got], addrs[:count-got])
		if rerr != nil {
			if api.IsWouldBlock(rerr) {
				time.Sleep(time.Millisecond)
				continue
			}
			t.Fatalf("recv batch: %v", rerr)
		}
		got += n
	}
	if got != count {
		t.Fatalf("received %d datagrams, want %d", got, count)
	}
}

func TestSocket_DoubleClose(t *testing.T) {
	cfg := api.DefaultConfig()
	cfg.ReusePort = false
	s, err := Bind(netip.MustParseAddrPort("127.0.0.1:0"), cfg)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != api.ErrClosed {
		t.Fatalf("second close = %v, want ErrClosed", err)
	}
}

func TestBuilder_AppliesProfile(t *testing.T) {
	s, err := NewBuilder().
		ReusePort(false).
		Buffers(128<<10, 128<<10).
		Bind(netip.MustParseAddrPort("127.0.0.1:0"))
	if err != nil {
		t.Fatalf("builder bind: %v", err)
	}
	defer s.Close()
	rep := s.Report()
	if !rep.WasApplied("SO_RCVBUF") || !rep.WasApplied("SO_SNDBUF") {
		t.Errorf("buffer options not applied: %+v", rep)
	}
}

func TestBindDualStack_ReceivesIPv4Sender(t *testing.T) {
	cfg := api.DefaultConfig()
	cfg.ReusePort = false
	recv, err := BindDualStack(0, cfg)
	if err != nil {
		t.Skipf("dual-stack bind unavailable on this host: %v", err)
	}
	defer recv.Close()
	local, err := recv.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}
	dst := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), local.Port())

	send := loopback(t)
	payload := []byte("mapped hello")
	if err := send.SendTo(payload, dst); err != nil {
		t.Fatalf("send: %v", err)
	}

	bp := pool.NewBufferPool(2, 2048)
	bufs := bp.AcquireBatch(2)
	addrs := make([]netip.AddrPort, len(bufs))
	n := waitRecv(t, recv, bufs, addrs)
	if n != 1 {
		t.Fatalf("recv count = %d, want 1", n)
	}
	if !bytes.Equal(bufs[0].Bytes(), payload) {
		t.Errorf("payload = %q, want %q", bufs[0].Bytes(), payload)
	}
	src, err := send.LocalAddr()
	if err != nil {
		t.Fatalf("sender addr: %v", err)
	}
	if addrs[0] != src {
		t.Errorf("sender = %s, want %s", addrs[0], src)
	}
	if !addrs[0].Addr().Is4() {
		t.Errorf("sender %s not reported as plain IPv4", addrs[0])
	}
}

func TestBindDualStack_RejectsV6Only(t *testing.T) {
	cfg := api.DefaultConfig()
	cfg.IPv6Mode = api.IPv6ModeOnly
	if _, err := BindDualStack(0, cfg); err == nil {
		t.Fatal("dual-stack bind with IPv6ModeOnly must fail")
	}
}
