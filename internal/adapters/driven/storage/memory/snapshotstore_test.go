package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := &domain.CacheSnapshot{ContentHash: "h1", Provider: "ollama", Model: "nomic-embed-text"}
	require.NoError(t, store.Put(ctx, "key", snap))

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.ContentHash)
}

func TestSnapshotStore_GetMissing(t *testing.T) {
	store := NewSnapshotStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_PutNil(t *testing.T) {
	store := NewSnapshotStore()

	assert.ErrorIs(t, store.Put(context.Background(), "key", nil), domain.ErrInvalidInput)
}

func TestSnapshotStore_Delete(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", &domain.CacheSnapshot{ContentHash: "h"}))
	require.NoError(t, store.Delete(ctx, "key"))

	_, err := store.Get(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_GetReturnsCopy(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", &domain.CacheSnapshot{ContentHash: "original"}))

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	got.ContentHash = "mutated"

	again, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "original", again.ContentHash)
}
