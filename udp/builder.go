// File: udp/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package udp

import (
	"net/netip"

	"github.com/momentics/hioload-net/api"
)

// Builder assembles a tuned Socket without spelling out a full NetConfig.
// It starts from api.DefaultConfig; every setter returns the builder for
// chaining and the terminal Bind* methods create the descriptor.
type Builder struct {
	cfg api.NetConfig
}

// NewBuilder returns a Builder seeded with the default profile.
func NewBuilder() *Builder {
	return &Builder{cfg: api.DefaultConfig()}
}

// Config replaces the whole profile, keeping later setters applicable on top.
func (b *Builder) Config(cfg api.NetConfig) *Builder {
	b.cfg = cfg
	return b
}

// ReusePort toggles SO_REUSEPORT for sharded receivers.
func (b *Builder) ReusePort(on bool) *Builder {
	b.cfg.ReusePort = on
	return b
}

// BusyPoll sets the busy-poll budget in microseconds; zero disables it.
func (b *Builder) BusyPoll(us int) *Builder {
	b.cfg.BusyPollUS = us
	return b
}

// Buffers sets the kernel receive and send buffer sizes in bytes.
func (b *Builder) Buffers(recv, send int) *Builder {
	b.cfg.RecvBuf = recv
	b.cfg.SendBuf = send
	return b
}

// TOS sets the DSCP/TOS marking applied to outgoing datagrams.
func (b *Builder) TOS(tos int) *Builder {
	b.cfg.TOS = tos
	return b
}

// Bind creates the socket on the given local address.
func (b *Builder) Bind(local netip.AddrPort) (*Socket, error) {
	return Bind(local, b.cfg)
}

// BindDualStack creates the socket on [::]:port with IPv4-mapped reception.
func (b *Builder) BindDualStack(port uint16) (*Socket, error) {
	return BindDualStack(port, b.cfg)
}
