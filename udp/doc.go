// File: udp/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package udp is the batched datagram engine. A Socket wraps one tuned,
// nonblocking descriptor and moves whole batches of datagrams per call:
// recvmmsg/sendmmsg on Linux, a bounded nonblocking loop with identical
// semantics everywhere else.
//
// Buffers come from a pool.BufferPool; the engine fills them in place and
// never allocates per datagram. Sockets are not synchronized — each one
// belongs to a single goroutine, typically the one driving the poller.
package udp
