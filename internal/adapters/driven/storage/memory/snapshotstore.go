// Package memory provides in-memory driven-port implementations for tests
// and ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.CacheSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]domain.CacheSnapshot)}
}

// Get retrieves the snapshot for a session key.
func (s *SnapshotStore) Get(_ context.Context, key string) (*domain.CacheSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snap, nil
}

// Put stores the snapshot for a session key.
func (s *SnapshotStore) Put(_ context.Context, key string, snap *domain.CacheSnapshot) error {
	if snap == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = *snap
	return nil
}

// Delete removes the snapshot for a session key.
func (s *SnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}

// Close releases resources.
func (s *SnapshotStore) Close() error {
	return nil
}
