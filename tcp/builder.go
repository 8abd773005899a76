// File: tcp/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
)

// Builder assembles tuned stream endpoints starting from api.DefaultConfig.
// Setters chain; Listen and Dial are the terminal calls.
type Builder struct {
	cfg api.NetConfig
}

// NewBuilder returns a Builder seeded with the default profile.
func NewBuilder() *Builder {
	return &Builder{cfg: api.DefaultConfig()}
}

// Config replaces the whole profile.
func (b *Builder) Config(cfg api.NetConfig) *Builder {
	b.cfg = cfg
	return b
}

// NoDelay toggles TCP_NODELAY on created and accepted streams.
func (b *Builder) NoDelay(on bool) *Builder {
	b.cfg.TCPNoDelay = on
	return b
}

// QuickAck requests TCP_QUICKACK where the platform has it.
func (b *Builder) QuickAck(on bool) *Builder {
	b.cfg.TCPQuickAck = on
	return b
}

// Backlog sets the listen backlog.
func (b *Builder) Backlog(n int) *Builder {
	b.cfg.TCPBacklog = n
	return b
}

// Buffers sets the kernel receive and send buffer sizes in bytes.
func (b *Builder) Buffers(recv, send int) *Builder {
	b.cfg.RecvBuf = recv
	b.cfg.SendBuf = send
	return b
}

// Listen creates a listener on the given local address.
func (b *Builder) Listen(local netip.AddrPort) (*Listener, error) {
	return Listen(local, b.cfg)
}

// ListenDualStack creates a listener on [::]:port accepting IPv4 clients.
func (b *Builder) ListenDualStack(port uint16) (*Listener, error) {
	return ListenDualStack(port, b.cfg)
}

// Dial starts a nonblocking connect to remote.
func (b *Builder) Dial(remote netip.AddrPort) (*Stream, error) {
	return Dial(remote, b.cfg)
}
