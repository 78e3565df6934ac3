package driven

import (
	"context"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// SnapshotStore persists cache snapshots keyed by a session identifier
// derived from the page's origin and path. Backed by SQLite; an in-memory
// implementation exists for tests.
//
// A snapshot that cannot be decoded is reported as domain.ErrMalformedSnapshot
// and must be treated as a full miss, never partially reused.
type SnapshotStore interface {
	// Get retrieves the snapshot for a session key.
	// Returns domain.ErrNotFound when no snapshot exists.
	Get(ctx context.Context, key string) (*domain.CacheSnapshot, error)

	// Put stores the snapshot for a session key, replacing any previous one
	// atomically.
	Put(ctx context.Context, key string, snap *domain.CacheSnapshot) error

	// Delete removes the snapshot for a session key. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}
