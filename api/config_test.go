// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package api

import (
	"testing"
	"time"
)

// TestPresets_Deterministic verifies presets are pure value constructors.
func TestPresets_Deterministic(t *testing.T) {
	presets := []func() NetConfig{DefaultConfig, LowLatency, HighThroughput, PowerEfficient}
	for _, preset := range presets {
		a, b := preset(), preset()
		if a != b {
			t.Errorf("preset not deterministic: %+v vs %+v", a, b)
		}
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.TCPNoDelay || !cfg.TCPQuickAck || !cfg.ReusePort {
		t.Errorf("default latency knobs: %+v", cfg)
	}
	if cfg.BusyPollUS != 0 {
		t.Errorf("default busy poll = %d, want 0", cfg.BusyPollUS)
	}
	if cfg.RecvBuf != 1<<20 || cfg.SendBuf != 1<<20 {
		t.Errorf("default buffers = %d/%d, want 1MiB", cfg.RecvBuf, cfg.SendBuf)
	}
	if cfg.IPv6Mode != IPv6ModeDualStack {
		t.Errorf("default IPv6Mode = %d, want dual stack", cfg.IPv6Mode)
	}
}

func TestLowLatency_Values(t *testing.T) {
	cfg := LowLatency()
	if cfg.BusyPollUS != 50 {
		t.Errorf("lowlat busy poll = %d, want 50", cfg.BusyPollUS)
	}
	if cfg.RecvBuf != 256<<10 || cfg.SendBuf != 256<<10 {
		t.Errorf("lowlat buffers = %d/%d, want 256KiB", cfg.RecvBuf, cfg.SendBuf)
	}
	if cfg.TOS != 0x10 {
		t.Errorf("lowlat TOS = %#x, want 0x10", cfg.TOS)
	}
	if cfg.PollTimeout != time.Millisecond {
		t.Errorf("lowlat poll timeout = %v, want 1ms", cfg.PollTimeout)
	}
}

func TestHighThroughput_Values(t *testing.T) {
	cfg := HighThroughput()
	if cfg.TCPNoDelay || cfg.TCPQuickAck {
		t.Errorf("throughput preset should leave Nagle and delayed ACKs on: %+v", cfg)
	}
	if cfg.RecvBuf != 16<<20 || cfg.SendBuf != 16<<20 {
		t.Errorf("throughput buffers = %d/%d, want 16MiB", cfg.RecvBuf, cfg.SendBuf)
	}
	if cfg.TOS != 0x08 {
		t.Errorf("throughput TOS = %#x, want 0x08", cfg.TOS)
	}
}

func TestPowerEfficient_Values(t *testing.T) {
	cfg := PowerEfficient()
	if cfg.BusyPollUS != 0 {
		t.Errorf("efficient busy poll = %d, want 0", cfg.BusyPollUS)
	}
	if cfg.ReusePort || cfg.TCPQuickAck {
		t.Errorf("efficient preset should not spread load or force ACKs: %+v", cfg)
	}
	if cfg.PollTimeout != 100*time.Millisecond {
		t.Errorf("efficient poll timeout = %v, want 100ms", cfg.PollTimeout)
	}
}

// TestNetConfig_Comparable documents the == contract presets rely on.
func TestNetConfig_Comparable(t *testing.T) {
	a := LowLatency()
	b := a
	if a != b {
		t.Fatal("copies must compare equal")
	}
	b.BusyPollUS++
	if a == b {
		t.Fatal("differing configs must compare unequal")
	}
}

func TestOptionReport_WasApplied(t *testing.T) {
	rep := OptionReport{
		Applied: []string{"SO_RCVBUF", "TCP_NODELAY"},
		Skipped: []string{"SO_BUSY_POLL"},
	}
	if !rep.WasApplied("TCP_NODELAY") {
		t.Error("TCP_NODELAY should be applied")
	}
	if rep.WasApplied("SO_BUSY_POLL") {
		t.Error("skipped option reported as applied")
	}
	if rep.WasApplied("TCP_QUICKACK") {
		t.Error("unknown option reported as applied")
	}
}
