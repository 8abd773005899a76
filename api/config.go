// File: api/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket tuning descriptor and canonical presets.

package api

import "time"

// IPv6Mode controls dual-stack behaviour of an IPv6 socket.
type IPv6Mode uint8

const (
	// IPv6ModeDefault leaves the system default untouched.
	IPv6ModeDefault IPv6Mode = iota
	// IPv6ModeDualStack clears IPV6_V6ONLY so IPv4-mapped peers are accepted.
	IPv6ModeDualStack
	// IPv6ModeOnly sets IPV6_V6ONLY, rejecting IPv4-mapped peers.
	IPv6ModeOnly
)

// NetConfig is the platform-neutral socket tuning descriptor. It is a plain
// value: construct it (usually from a preset), optionally adjust fields, and
// hand it to internal/sock, udp or tcp. Nothing mutates a NetConfig after
// construction and copies compare with ==.
//
// Zero values mean "leave the kernel default alone" for the optional knobs:
// BusyPollUS == 0 disables busy polling, RecvBuf/SendBuf == 0 keep the kernel
// sizing, TOS == 0 leaves traffic unmarked, HopLimit == 0 keeps the system
// hop limit.
type NetConfig struct {
	// TCPNoDelay disables Nagle coalescing on stream sockets.
	TCPNoDelay bool
	// TCPQuickAck forces immediate ACKs. Linux only; skipped elsewhere.
	TCPQuickAck bool
	// ReusePort allows several sockets on one port for load spreading.
	// Linux and the BSDs; skipped on Windows.
	ReusePort bool
	// BusyPollUS busy-polls the device queue for the given microseconds
	// before the socket blocks. Linux only, best-effort even there.
	BusyPollUS int
	// RecvBuf and SendBuf request kernel buffer sizes in bytes.
	RecvBuf int
	SendBuf int
	// TOS is the DSCP/traffic-class marking (IP_TOS / IPV6_TCLASS).
	TOS int
	// IPv6Mode selects dual-stack behaviour; ignored for IPv4 sockets.
	IPv6Mode IPv6Mode
	// HopLimit sets the IPv6 unicast hop limit; ignored for IPv4 sockets.
	HopLimit int
	// TCPBacklog is the listen backlog for stream listeners.
	TCPBacklog int
	// PollTimeout is the suggested bridge poll timeout for sockets tuned
	// with this descriptor. Advisory: the bridge takes its timeout per call.
	PollTimeout time.Duration
}

// DefaultConfig returns the balanced preset: latency knobs on, 1 MiB kernel
// buffers, no busy polling.
func DefaultConfig() NetConfig {
	return NetConfig{
		TCPNoDelay:  true,
		TCPQuickAck: true,
		ReusePort:   true,
		BusyPollUS:  0,
		RecvBuf:     1 << 20,
		SendBuf:     1 << 20,
		TOS:         0,
		IPv6Mode:    IPv6ModeDualStack,
		HopLimit:    0,
		TCPBacklog:  1024,
		PollTimeout: 10 * time.Millisecond,
	}
}

// LowLatency returns the latency preset: 50µs busy polling, small 256 KiB
// buffers, low-delay DSCP marking and a 1ms poll timeout.
func LowLatency() NetConfig {
	return NetConfig{
		TCPNoDelay:  true,
		TCPQuickAck: true,
		ReusePort:   true,
		BusyPollUS:  50,
		RecvBuf:     256 << 10,
		SendBuf:     256 << 10,
		TOS:         0x10,
		IPv6Mode:    IPv6ModeDualStack,
		HopLimit:    0,
		TCPBacklog:  512,
		PollTimeout: time.Millisecond,
	}
}

// HighThroughput returns the bulk-transfer preset: 16 MiB buffers, Nagle and
// delayed ACKs left on, a large backlog and no busy polling.
func HighThroughput() NetConfig {
	return NetConfig{
		TCPNoDelay:  false,
		TCPQuickAck: false,
		ReusePort:   true,
		BusyPollUS:  0,
		RecvBuf:     16 << 20,
		SendBuf:     16 << 20,
		TOS:         0x08,
		IPv6Mode:    IPv6ModeDualStack,
		HopLimit:    0,
		TCPBacklog:  2048,
		PollTimeout: 50 * time.Millisecond,
	}
}

// PowerEfficient returns the low-wakeup preset: moderate 512 KiB buffers, no
// busy polling and a long 100ms poll timeout.
func PowerEfficient() NetConfig {
	return NetConfig{
		TCPNoDelay:  true,
		TCPQuickAck: false,
		ReusePort:   false,
		BusyPollUS:  0,
		RecvBuf:     512 << 10,
		SendBuf:     512 << 10,
		TOS:         0,
		IPv6Mode:    IPv6ModeDualStack,
		HopLimit:    0,
		TCPBacklog:  256,
		PollTimeout: 100 * time.Millisecond,
	}
}

// OptionReport records, per socket, which tuning options actually took
// effect. Options missing on the host platform, or best-effort options the
// kernel declined, land in Skipped; everything the kernel accepted lands in
// Applied. Names are the native option names (SO_RCVBUF, TCP_NODELAY, ...).
type OptionReport struct {
	Applied []string
	Skipped []string
}

// WasApplied reports whether the named option took effect.
func (r OptionReport) WasApplied(name string) bool {
	for _, n := range r.Applied {
		if n == name {
			return true
		}
	}
	return false
}
