// File: pool/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

// Buffer is a byte sequence with fixed capacity and a mutable length. Buffers
// are only created by a BufferPool; they carry a back-reference so the pool
// can refuse foreign or double releases.
type Buffer struct {
	data   []byte // len(data) == cap, fixed at pool construction
	n      int
	owner  *BufferPool
	leased bool
}

// Bytes returns the filled portion of the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Raw returns the full-capacity backing slice for I/O routines that fill the
// buffer directly. Pair with SetLen once the datagram size is known.
func (b *Buffer) Raw() []byte { return b.data }

// Len returns the current length.
func (b *Buffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// SetLen truncates or extends the visible length, clamped to the capacity.
func (b *Buffer) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	b.n = n
}
