// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package pool

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-net/api"
)

// TestBufferPool_Population verifies checked-out plus idle always equals the
// fixed population.
func TestBufferPool_Population(t *testing.T) {
	p := NewBufferPool(64, 2048)
	if p.Count() != 64 || p.IdleCount() != 64 {
		t.Fatalf("fresh pool: count=%d idle=%d", p.Count(), p.IdleCount())
	}

	bufs := p.AcquireBatch(100)
	if len(bufs) != 64 {
		t.Fatalf("acquire(100) from 64-pool returned %d", len(bufs))
	}
	if p.IdleCount() != 0 {
		t.Fatalf("idle after drain = %d, want 0", p.IdleCount())
	}
	if more := p.AcquireBatch(1); len(more) != 0 {
		t.Fatalf("drained pool handed out %d buffers", len(more))
	}

	if err := p.ReleaseBatch(bufs); err != nil {
		t.Fatalf("release batch: %v", err)
	}
	if p.IdleCount() != 64 {
		t.Fatalf("idle after release = %d, want 64", p.IdleCount())
	}
}

func TestBufferPool_AcquireResetsLength(t *testing.T) {
	p := NewBufferPool(1, 128)
	b := p.Acquire()
	if b == nil {
		t.Fatal("expected buffer")
	}
	b.SetLen(100)
	if err := p.Release(b); err != nil {
		t.Fatalf("release: %v", err)
	}
	b = p.Acquire()
	if b.Len() != 0 {
		t.Errorf("reacquired length = %d, want 0", b.Len())
	}
	if b.Cap() != 128 {
		t.Errorf("capacity = %d, want 128", b.Cap())
	}
}

func TestBufferPool_ForeignRelease(t *testing.T) {
	p1 := NewBufferPool(1, 64)
	p2 := NewBufferPool(1, 64)
	b := p1.Acquire()
	if err := p2.Release(b); !errors.Is(err, api.ErrForeignBuffer) {
		t.Fatalf("foreign release = %v, want ErrForeignBuffer", err)
	}
	// The buffer is still owned by p1 and still released exactly once.
	if err := p1.Release(b); err != nil {
		t.Fatalf("rightful release: %v", err)
	}
}

func TestBufferPool_DoubleRelease(t *testing.T) {
	p := NewBufferPool(2, 64)
	b := p.Acquire()
	if err := p.Release(b); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := p.Release(b); !errors.Is(err, api.ErrBufferNotLeased) {
		t.Fatalf("double release = %v, want ErrBufferNotLeased", err)
	}
	if p.IdleCount() != 2 {
		t.Fatalf("idle = %d after rejected double release, want 2", p.IdleCount())
	}
}

func TestBuffer_SetLenClamped(t *testing.T) {
	p := NewBufferPool(1, 32)
	b := p.Acquire()
	b.SetLen(64)
	if b.Len() != 32 {
		t.Errorf("overlong SetLen = %d, want clamp to 32", b.Len())
	}
	b.SetLen(-1)
	if b.Len() != 0 {
		t.Errorf("negative SetLen = %d, want 0", b.Len())
	}
}

func TestBatch_SplitAndReset(t *testing.T) {
	p := NewBufferPool(4, 64)
	batch := NewBatch(4)
	for _, b := range p.AcquireBatch(4) {
		batch.Append(b)
	}
	first, second := batch.Split(1)
	if first.Len() != 1 || second.Len() != 3 {
		t.Fatalf("split lengths %d/%d, want 1/3", first.Len(), second.Len())
	}
	if first.Get(0) != batch.Get(0) {
		t.Error("split must not copy buffers")
	}
	batch.Reset()
	if batch.Len() != 0 {
		t.Errorf("reset length = %d", batch.Len())
	}
}
