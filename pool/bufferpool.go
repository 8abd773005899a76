// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-population buffer pool with batch acquire/release and strict
// ownership transfer. The idle list is a FIFO so buffers rotate through the
// working set instead of pinning cache lines to the most recent few.

package pool

import (
	"github.com/eapache/queue"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

// BufferPool owns a bounded set of reusable buffers sized at construction.
// Invariant: buffers checked out plus buffers idle always equals Count().
//
// The pool is not internally synchronized. The contract is single owner at a
// time, enforced by the caller's architecture (one pool per polling thread),
// not by locking. Sharing one pool across threads without external
// coordination is a usage error.
type BufferPool struct {
	idle    *queue.Queue
	count   int
	bufSize int
}

// NewBufferPool allocates count buffers of bufSize bytes each. This is the
// only point at which the pool allocates; acquire and release never do.
func NewBufferPool(count, bufSize int) *BufferPool {
	if count < 0 {
		count = 0
	}
	if bufSize <= 0 {
		bufSize = 2048
	}
	p := &BufferPool{
		idle:    queue.New(),
		count:   count,
		bufSize: bufSize,
	}
	backing := make([]byte, count*bufSize)
	for i := 0; i < count; i++ {
		p.idle.Add(&Buffer{
			data:  backing[i*bufSize : (i+1)*bufSize : (i+1)*bufSize],
			owner: p,
		})
	}
	return p
}

// Acquire checks out a single buffer, or nil when none is idle.
func (p *BufferPool) Acquire() *Buffer {
	if p.idle.Length() == 0 {
		return nil
	}
	b := p.idle.Remove().(*Buffer)
	b.n = 0
	b.leased = true
	control.PoolAcquired.Inc()
	return b
}

// AcquireBatch checks out up to min(n, IdleCount()) buffers, each reset to
// zero length with full capacity available. When fewer than n are idle the
// shorter batch is returned; the pool never blocks and never allocates.
// Callers needing flow control poll len of the result.
func (p *BufferPool) AcquireBatch(n int) []*Buffer {
	if n <= 0 {
		return nil
	}
	avail := p.idle.Length()
	if avail < n {
		n = avail
	}
	out := make([]*Buffer, 0, n)
	for i := 0; i < n; i++ {
		b := p.idle.Remove().(*Buffer)
		b.n = 0
		b.leased = true
		out = append(out, b)
	}
	control.PoolAcquired.Add(n)
	return out
}

// Release returns one buffer to the pool. The buffer must have been produced
// by this pool and must currently be checked out; anything else is an
// ownership violation and is rejected without touching the idle list.
func (p *BufferPool) Release(b *Buffer) error {
	if b == nil || b.owner != p {
		return api.ErrForeignBuffer
	}
	if !b.leased {
		return api.ErrBufferNotLeased
	}
	b.leased = false
	b.n = 0
	p.idle.Add(b)
	control.PoolReleased.Inc()
	return nil
}

// ReleaseBatch returns a batch of buffers. It stops at the first ownership
// violation and reports it; buffers before the offending one are already back
// in the pool.
func (p *BufferPool) ReleaseBatch(bufs []*Buffer) error {
	for _, b := range bufs {
		if err := p.Release(b); err != nil {
			return err
		}
	}
	return nil
}

// IdleCount returns how many buffers are resident in the pool right now.
func (p *BufferPool) IdleCount() int { return p.idle.Length() }

// Count returns the fixed pool population.
func (p *BufferPool) Count() int { return p.count }

// BufferSize returns the fixed per-buffer capacity in bytes.
func (p *BufferPool) BufferSize() int { return p.bufSize }
