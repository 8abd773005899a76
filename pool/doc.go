// File: pool/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package pool provides the fixed-population buffer pool that keeps the
// receive hot path allocation-free.
//
// A pool owns count buffers of one capacity, all allocated at construction.
// Acquire and release are ownership transfers, not borrows: a checked-out
// buffer belongs exclusively to the caller until it is released, and must not
// be touched afterwards. The pool is deliberately not synchronized; the
// intended architecture is one pool per polling thread (see the concurrency
// notes on BufferPool).
package pool
