// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dynamic runtime settings store. Socket tuning itself is the immutable
// api.NetConfig value; this store covers the mutable operational knobs a
// long-running process may want to adjust (poll timeouts, batch sizing)
// and propagates changes to registered listeners.

package control

import (
	"sync"
	"time"
)

// RuntimeSettings is one immutable snapshot of the operational knobs.
type RuntimeSettings struct {
	// PollTimeout overrides the bridge poll timeout used by loops that
	// subscribe to this store.
	PollTimeout time.Duration
	// RecvBatchSize is the number of buffer slots recv loops pass per call.
	RecvBatchSize int
}

// DefaultRuntimeSettings mirrors the balanced tuning preset.
func DefaultRuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		PollTimeout:   10 * time.Millisecond,
		RecvBatchSize: 16,
	}
}

// SettingsStore hands out snapshots and notifies listeners on updates.
// Reads are cheap; updates are rare and take the write lock.
type SettingsStore struct {
	mu        sync.RWMutex
	current   RuntimeSettings
	listeners []func(RuntimeSettings)
}

// NewSettingsStore initializes a store with the default snapshot.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{current: DefaultRuntimeSettings()}
}

// Snapshot returns the current settings by value.
func (s *SettingsStore) Snapshot() RuntimeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the snapshot and notifies listeners with the new value.
func (s *SettingsStore) Update(next RuntimeSettings) {
	s.mu.Lock()
	s.current = next
	ls := make([]func(RuntimeSettings), len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(next)
	}
}

// OnUpdate registers a listener invoked after every Update.
func (s *SettingsStore) OnUpdate(fn func(RuntimeSettings)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
