// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package sock

import (
	"net/netip"
	"testing"

	"github.com/momentics/hioload-net/api"
)

func TestOpenUDP_ReportsAppliedOptions(t *testing.T) {
	cfg := api.NetConfig{RecvBuf: 128 << 10, SendBuf: 128 << 10}
	h, err := OpenUDP(netip.MustParseAddrPort("127.0.0.1:0"), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	rep := h.Report()
	if !rep.WasApplied("SO_RCVBUF") || !rep.WasApplied("SO_SNDBUF") {
		t.Errorf("buffer sizing not applied: %+v", rep)
	}
	for _, s := range rep.Skipped {
		if rep.WasApplied(s) {
			t.Errorf("option %s both applied and skipped", s)
		}
	}
}

func TestOpenUDP_BusyPollAccountedFor(t *testing.T) {
	cfg := api.NetConfig{BusyPollUS: 50}
	h, err := OpenUDP(netip.MustParseAddrPort("127.0.0.1:0"), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	// Best-effort option: must land in exactly one of the two lists.
	rep := h.Report()
	applied := rep.WasApplied("SO_BUSY_POLL")
	skipped := false
	for _, s := range rep.Skipped {
		if s == "SO_BUSY_POLL" {
			skipped = true
		}
	}
	if applied == skipped {
		t.Errorf("SO_BUSY_POLL applied=%v skipped=%v: %+v", applied, skipped, rep)
	}
}

func TestOpenDualStack_RejectsV6Only(t *testing.T) {
	cfg := api.NetConfig{IPv6Mode: api.IPv6ModeOnly}
	if _, err := OpenUDPDualStack(0, cfg); err == nil {
		t.Fatal("dual-stack open with IPv6ModeOnly must fail")
	}
}

func TestLocalAddr_EphemeralPortResolved(t *testing.T) {
	h, err := OpenUDP(netip.MustParseAddrPort("127.0.0.1:0"), api.NetConfig{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()
	la, err := h.LocalAddr()
	if err != nil {
		t.Fatalf("local addr: %v", err)
	}
	if la.Port() == 0 {
		t.Error("ephemeral bind left port 0")
	}
	if la.Addr() != netip.MustParseAddr("127.0.0.1") {
		t.Errorf("bound addr = %s", la.Addr())
	}
}

func TestHandle_DoubleClose(t *testing.T) {
	h, err := OpenUDP(netip.MustParseAddrPort("127.0.0.1:0"), api.NetConfig{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != api.ErrClosed {
		t.Fatalf("second close = %v, want ErrClosed", err)
	}
}
