// Package sqlite provides a SQLite-backed snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	session_key TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	updated_at  DATETIME NOT NULL
);
`

// Store persists cache snapshots in SQLite, one row per session key.
// Replacement is atomic at the row level, so a snapshot is always either the
// previous complete build or the new one.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a snapshot store at the specified data directory.
// If dataDir is empty, defaults to ~/.pagelens/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagelens", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "snapshots.db")

	// WAL mode for concurrent readers during writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get retrieves the snapshot for a session key. A row that cannot be decoded
// is reported as domain.ErrMalformedSnapshot and must be treated as a full
// miss.
func (s *Store) Get(ctx context.Context, key string) (*domain.CacheSnapshot, error) {
	var payload []byte
	row := s.db.QueryRowContext(ctx, "SELECT payload FROM snapshots WHERE session_key = ?", key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	var snap domain.CacheSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err)
	}
	return &snap, nil
}

// Put stores the snapshot for a session key, replacing any previous row.
func (s *Store) Put(ctx context.Context, key string, snap *domain.CacheSnapshot) error {
	if snap == nil {
		return domain.ErrInvalidInput
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (session_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a session key. Missing keys are not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE session_key = ?", key); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
