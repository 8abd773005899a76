// File: api/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Capability surface of the runtime bridge. Two structurally different
// backends implement it: the readiness multiplexer (epoll/kqueue/WSAPoll)
// and the completion-queue backend behind the io_uring build tag. Both must
// satisfy the same pre/post-conditions; callers never learn which one they
// are holding.

package api

import "time"

// Token is the opaque identifier tying one socket handle to one entry in a
// bridge's readiness table. It is unique while the registration is live and
// may be reused after Deregister.
type Token uint64

// Interest selects which readiness directions a registration watches.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Both watches read and write readiness.
const Both = Readable | Writable

// Event is one readiness notification: which registration fired and which
// interests were satisfied.
type Event struct {
	Token Token
	Ready Interest
}

// Pollable is anything the bridge can register: a handle exposing its native
// descriptor. The bridge keeps only this non-owning reference and must be
// deregistered before the handle is closed.
type Pollable interface {
	PollFd() uintptr
}

// Poller is the runtime bridge. One instance belongs to one polling thread;
// parallelism comes from running several independent instances, not from
// sharing one.
//
// Poll blocks the calling thread until at least one registered handle is
// ready or the timeout elapses, then invokes fn once per ready event. The
// callback performs the actual I/O through the udp/tcp layers; the bridge
// itself never touches payload. A negative timeout blocks until the next
// event. There is no mid-poll cancellation: the loop ends when the caller
// stops calling Poll, all registrations are removed, or the timeout fires.
type Poller interface {
	Register(p Pollable, tok Token, interest Interest) error
	Deregister(tok Token) error
	Poll(timeout time.Duration, fn func(Event)) (int, error)
	Close() error
}
