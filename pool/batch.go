// File: pool/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reusable batch of checked-out buffers. Not thread-safe; the hot path keeps
// one batch per loop and recycles it with Reset instead of reallocating.

package pool

// Batch is a minimal zero-alloc collection of checked-out buffers.
type Batch struct {
	bufs []*Buffer
}

// NewBatch creates a batch with the given capacity.
func NewBatch(capacity int) *Batch {
	return &Batch{bufs: make([]*Buffer, 0, capacity)}
}

// Append adds a buffer to the batch.
func (b *Batch) Append(buf *Buffer) {
	b.bufs = append(b.bufs, buf)
}

// Len returns the number of buffers in the batch.
func (b *Batch) Len() int { return len(b.bufs) }

// Get retrieves the buffer at idx.
func (b *Batch) Get(idx int) *Buffer { return b.bufs[idx] }

// Bufs returns the underlying slice without copying.
func (b *Batch) Bufs() []*Buffer { return b.bufs }

// Split divides the batch at idx into two zero-copy sub-batches.
func (b *Batch) Split(idx int) (first, second *Batch) {
	return &Batch{bufs: b.bufs[:idx]}, &Batch{bufs: b.bufs[idx:]}
}

// Reset clears the batch retaining the underlying slice.
func (b *Batch) Reset() {
	for i := range b.bufs {
		b.bufs[i] = nil
	}
	b.bufs = b.bufs[:0]
}
