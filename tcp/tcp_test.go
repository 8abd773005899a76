// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package tcp

import (
	"bytes"
	"net/netip"
	"testing"
	"time"

	"github.com/momentics/hioload-net/api"
)

func testConfig() api.NetConfig {
	cfg := api.DefaultConfig()
	cfg.ReusePort = false
	return cfg
}

func listenLoopback(t *testing.T) *Listener {
	t.Helper()
	l, err := Listen(netip.MustParseAddrPort("127.0.0.1:0"), testConfig())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// dialEstablished drives a nonblocking connect to completion.
func dialEstablished(t *testing.T, remote netip.AddrPort) *Stream {
	t.Helper()
	s, err := Dial(remote, testConfig())
	if err != nil && !api.IsInProgress(err) {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		cerr := s.ConnectResult()
		if cerr == nil {
			t.Cleanup(func() { s.Close() })
			return s
		}
		if !api.IsInProgress(cerr) {
			t.Fatalf("connect result: %v", cerr)
		}
		if time.Now().After(deadline) {
			t.Fatal("connect did not complete")
		}
		time.Sleep(time.Millisecond)
	}
}

// acceptOne retries the nonblocking accept until the pending connect lands.
func acceptOne(t *testing.T, l *Listener) (*Stream, netip.AddrPort) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s, peer, err := l.Accept()
		if err == nil {
			t.Cleanup(func() { s.Close() })
			return s, peer
		}
		if !api.IsWouldBlock(err) {
			t.Fatalf("accept: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("accept timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAccept_EmptyQueueWouldBlock(t *testing.T) {
	l := listenLoopback(t)
	if _, _, err := l.Accept(); !api.IsWouldBlock(err) {
		t.Fatalf("idle accept = %v, want would-block", err)
	}
}

func TestDial_NonblockingConnect(t *testing.T) {
	l := listenLoopback(t)
	addr, err := l.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}
	client := dialEstablished(t, addr)
	server, peer := acceptOne(t, l)

	clientAddr, err := client.LocalAddr()
	if err != nil {
		t.Fatalf("client addr: %v", err)
	}
	if peer != clientAddr {
		t.Errorf("accepted peer = %s, want %s", peer, clientAddr)
	}
	if !server.Report().WasApplied("TCP_NODELAY") {
		t.Errorf("accepted stream tuning not applied: %+v", server.Report())
	}
}

func TestStream_EchoRoundTrip(t *testing.T) {
	l := listenLoopback(t)
	addr, err := l.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}
	client := dialEstablished(t, addr)
	server, _ := acceptOne(t, l)

	payload := []byte("nonblocking stream payload")
	if n, err := client.Write(payload); err != nil || n != len(payload) {
		t.Fatalf("write = %d, %v", n, err)
	}

	buf := make([]byte, 256)
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < len(payload) {
		n, rerr := server.Read(buf[got:])
		if rerr != nil {
			if api.IsWouldBlock(rerr) {
				if time.Now().After(deadline) {
					t.Fatal("read timed out")
				}
				time.Sleep(time.Millisecond)
				continue
			}
			t.Fatalf("read: %v", rerr)
		}
		got += n
	}
	if !bytes.Equal(buf[:got], payload) {
		t.Errorf("echoed %q, want %q", buf[:got], payload)
	}
}

func TestStream_ReadAfterPeerClose(t *testing.T) {
	l := listenLoopback(t)
	addr, err := l.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}
	client := dialEstablished(t, addr)
	server, _ := acceptOne(t, l)

	if err := client.Close(); err != nil {
		t.Fatalf("client close: %v", err)
	}

	buf := make([]byte, 16)
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, rerr := server.Read(buf)
		if rerr == nil && n == 0 {
			return // orderly shutdown observed
		}
		if rerr != nil && !api.IsWouldBlock(rerr) {
			t.Fatalf("read after close: %v", rerr)
		}
		if time.Now().After(deadline) {
			t.Fatal("did not observe peer close")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestListenDualStack_AcceptsIPv4Client(t *testing.T) {
	cfg := testConfig()
	cfg.HopLimit = 64
	l, err := ListenDualStack(0, cfg)
	if err != nil {
		t.Skipf("dual-stack listen unavailable on this host: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	addr, err := l.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}
	dst := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), addr.Port())

	client := dialEstablished(t, dst)
	server, peer := acceptOne(t, l)

	clientAddr, err := client.LocalAddr()
	if err != nil {
		t.Fatalf("client addr: %v", err)
	}
	if peer != clientAddr {
		t.Errorf("accepted peer = %s, want %s", peer, clientAddr)
	}
	if !peer.Addr().Is4() {
		t.Errorf("accepted peer %s not reported as plain IPv4", peer)
	}
	rep := server.Report()
	if !rep.WasApplied("TCP_NODELAY") {
		t.Errorf("accepted stream tuning not applied: %+v", rep)
	}
	// The accepted descriptor carries the listener's IPv6 family even when
	// the peer is an IPv4-mapped client, so its IPv6-level tuning applies.
	if !rep.WasApplied("IPV6_UNICAST_HOPS") {
		t.Errorf("accepted stream missing IPv6 hop limit: %+v", rep)
	}
}

func TestListener_DoubleClose(t *testing.T) {
	l, err := Listen(netip.MustParseAddrPort("127.0.0.1:0"), testConfig())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Close(); err != api.ErrClosed {
		t.Fatalf("second close = %v, want ErrClosed", err)
	}
}

func TestBuilder_Listen(t *testing.T) {
	l, err := NewBuilder().
		Config(testConfig()).
		Backlog(8).
		Listen(netip.MustParseAddrPort("127.0.0.1:0"))
	if err != nil {
		t.Fatalf("builder listen: %v", err)
	}
	defer l.Close()
	if !l.Report().WasApplied("SO_RCVBUF") {
		t.Errorf("listener tuning not applied: %+v", l.Report())
	}
}
