package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot() *domain.CacheSnapshot {
	return &domain.CacheSnapshot{
		Chunks: map[string]domain.Chunk{
			"intro": {ID: "intro", RawText: "Introductory content.", HeadingPath: []string{"Intro"}},
		},
		Embeddings:  map[string][]float32{"intro": {0.1, 0.2, 0.3}},
		ContentHash: "abc123",
		Provider:    "ollama",
		Model:       "nomic-embed-text",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "https://example.com/doc", testSnapshot()))

	got, err := store.Get(ctx, "https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.Equal(t, "ollama", got.Provider)
	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embeddings["intro"])
	assert.Equal(t, []string{"Intro"}, got.Chunks["intro"].HeadingPath)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "https://example.com/unknown")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_PutReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", testSnapshot()))

	updated := testSnapshot()
	updated.ContentHash = "def456"
	require.NoError(t, store.Put(ctx, "key", updated))

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "def456", got.ContentHash)
}

func TestStore_PutNil(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Put(context.Background(), "key", nil), domain.ErrInvalidInput)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", testSnapshot()))
	require.NoError(t, store.Delete(ctx, "key"))

	_, err := store.Get(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteMissingIsNoError(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Delete(context.Background(), "never-stored"))
}

func TestStore_MalformedPayload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO snapshots (session_key, payload, updated_at)
		VALUES (?, ?, ?)`, "broken", []byte("{not json"), time.Now().UTC())
	require.NoError(t, err)

	_, err = store.Get(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestStore_KeysAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", testSnapshot()))

	other := testSnapshot()
	other.ContentHash = "other"
	require.NoError(t, store.Put(ctx, "b", other))
	require.NoError(t, store.Delete(ctx, "a"))

	got, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "other", got.ContentHash)
}
