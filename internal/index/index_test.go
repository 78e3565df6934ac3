package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens-cli/internal/adapters/driven/storage/memory"
	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// stubEmbedder returns canned vectors keyed by input text.
type stubEmbedder struct {
	identity domain.EmbedderIdentity
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return s.fallback, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) Identity() domain.EmbedderIdentity { return s.identity }
func (s *stubEmbedder) Dimensions() int                   { return 2 }
func (s *stubEmbedder) Ping(context.Context) error        { return nil }
func (s *stubEmbedder) Close() error                      { return nil }

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "caching", Text: "embedding cache snapshots persist on disk", RawText: "embedding cache snapshots persist on disk"},
		{ID: "search", Text: "hybrid retrieval blends keyword and vector scores", RawText: "hybrid retrieval blends keyword and vector scores"},
	}
}

func testEmbeddings() map[string][]float32 {
	return map[string][]float32{
		"caching": {1, 0},
		"search":  {0, 1},
	}
}

const testKey = "https://example.com/doc"

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 0.001)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.001)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 0.001)
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestInsert_LexicalOnlyWithoutEmbedder(t *testing.T) {
	ix := New(testKey, nil, nil)

	err := ix.Insert(context.Background(), testChunks(), nil)

	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	assert.False(t, ix.HasEmbeddings())
}

func TestInsert_EmptyCorpus(t *testing.T) {
	ix := New(testKey, nil, nil)

	err := ix.Insert(context.Background(), nil, nil)

	assert.ErrorIs(t, err, domain.ErrSegmentationEmpty)
}

func TestInsert_MissingSnapshotInvalidatesCache(t *testing.T) {
	store := memory.NewSnapshotStore()
	embedder := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}}
	ix := New(testKey, store, embedder)

	err := ix.Insert(context.Background(), testChunks(), nil)

	assert.ErrorIs(t, err, domain.ErrCacheInvalidated)
	assert.Zero(t, ix.Len())
}

func TestInsert_EmbedderWithoutStoreInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}}
	ix := New(testKey, nil, embedder)

	err := ix.Insert(ctx, testChunks(), nil)

	assert.ErrorIs(t, err, domain.ErrCacheInvalidated)
	assert.Zero(t, ix.Len())

	// The regenerate path still works without persistence.
	require.NoError(t, ix.Insert(ctx, testChunks(), testEmbeddings()))
	assert.True(t, ix.HasEmbeddings())
	assert.Equal(t, 2, ix.Len())
}

func TestInsert_PersistsAndReusesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	embedder := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}}

	first := New(testKey, store, embedder)
	require.NoError(t, first.Insert(ctx, testChunks(), testEmbeddings()))

	second := New(testKey, store, embedder)
	err := second.Insert(ctx, testChunks(), nil)

	require.NoError(t, err)
	assert.True(t, second.HasEmbeddings())
	assert.Equal(t, 2, second.Len())
}

func TestInsert_ContentChangeInvalidatesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	embedder := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}}

	first := New(testKey, store, embedder)
	require.NoError(t, first.Insert(ctx, testChunks(), testEmbeddings()))

	edited := testChunks()
	edited[0].RawText = "a genuinely different paragraph about caching"
	second := New(testKey, store, embedder)
	err := second.Insert(ctx, edited, nil)

	assert.ErrorIs(t, err, domain.ErrCacheInvalidated)

	// The stale snapshot is discarded, not partially reused.
	_, err = store.Get(ctx, testKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsert_EmbedderChangeInvalidatesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()

	first := New(testKey, store, &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}})
	require.NoError(t, first.Insert(ctx, testChunks(), testEmbeddings()))

	// Same content, different model: the conjunction fails.
	swapped := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "all-minilm"}}
	second := New(testKey, store, swapped)
	err := second.Insert(ctx, testChunks(), nil)

	assert.ErrorIs(t, err, domain.ErrCacheInvalidated)
}

func TestInsert_LegacySnapshotWithoutIdentityInvalid(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	embedder := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}}

	chunks := testChunks()
	hash, err := ContentHash(chunks)
	require.NoError(t, err)

	// A snapshot written before embedder identity was recorded: the hash
	// matches but provider/model are absent.
	legacy := &domain.CacheSnapshot{
		Chunks:      map[string]domain.Chunk{"caching": chunks[0], "search": chunks[1]},
		Embeddings:  testEmbeddings(),
		ContentHash: hash,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.Put(ctx, testKey, legacy))

	ix := New(testKey, store, embedder)
	assert.ErrorIs(t, ix.Insert(ctx, chunks, nil), domain.ErrCacheInvalidated)
}

func TestSearch_ExactTextRanksFirst(t *testing.T) {
	ix := New(testKey, nil, nil)
	require.NoError(t, ix.Insert(context.Background(), testChunks(), nil))

	results, err := ix.Search(context.Background(), "embedding cache snapshots persist on disk", domain.SearchOptions{})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "caching", results[0].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].Score, domain.DefaultSearchThreshold)
}

func TestSearch_BlendsLexicalAndVectorScores(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{
		identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"},
		vectors:  map[string][]float32{"cache snapshots": {1, 0}},
	}
	ix := New(testKey, nil, embedder)
	require.NoError(t, ix.Insert(ctx, testChunks(), testEmbeddings()))

	results, err := ix.Search(ctx, "cache snapshots", domain.SearchOptions{Unthresholded: true, Hybrid: true})

	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "caching", top.Chunk.ID)
	// Best lexical hit normalizes to 1.0; its vector matches the query
	// exactly, so cosine 1 maps to 1.0 and the blend is 0.5+0.5.
	assert.InDelta(t, 1.0, top.LexicalScore, 0.001)
	assert.InDelta(t, 1.0, top.VectorScore, 0.001)
	assert.InDelta(t, 1.0, top.Score, 0.001)
}

func TestSearch_VectorOnlyChunksIncluded(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{
		identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"},
		vectors:  map[string][]float32{"keyword free query": {0, 1}},
	}
	ix := New(testKey, nil, embedder)

	chunks := []domain.Chunk{
		{ID: "lexical", Text: "keyword rich text about queries", RawText: "keyword rich text about queries"},
		{ID: "semantic", Text: "unrelated wording entirely", RawText: "unrelated wording entirely"},
	}
	embeddings := map[string][]float32{
		"lexical":  {1, 0},
		"semantic": {0, 1},
	}
	require.NoError(t, ix.Insert(ctx, chunks, embeddings))

	results, err := ix.Search(ctx, "keyword free query", domain.SearchOptions{Threshold: 0.4, Hybrid: true})

	require.NoError(t, err)

	var semantic *domain.SearchResult
	for i := range results {
		if results[i].Chunk.ID == "semantic" {
			semantic = &results[i]
		}
	}
	require.NotNil(t, semantic, "vector-only chunk should be included")
	assert.Zero(t, semantic.LexicalScore)
	assert.InDelta(t, 1.0, semantic.VectorScore, 0.001)
	assert.InDelta(t, 0.5, semantic.Score, 0.001)
}

func TestSearch_EmbedderFailureDegradesToLexical(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{
		identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"},
	}
	ix := New(testKey, nil, embedder)
	require.NoError(t, ix.Insert(ctx, testChunks(), testEmbeddings()))

	embedder.err = domain.ErrEmbeddingUnavailable
	results, err := ix.Search(ctx, "hybrid retrieval", domain.SearchOptions{Unthresholded: true, Hybrid: true})

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "search", results[0].Chunk.ID)
	assert.Zero(t, results[0].VectorScore)
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := New(testKey, nil, nil)

	results, err := ix.Search(context.Background(), "anything", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_LimitApplies(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "a", Text: "shared term alpha", RawText: "shared term alpha"},
		{ID: "b", Text: "shared term beta", RawText: "shared term beta"},
		{ID: "c", Text: "shared term gamma", RawText: "shared term gamma"},
	}
	ix := New(testKey, nil, nil)
	require.NoError(t, ix.Insert(context.Background(), chunks, nil))

	results, err := ix.Search(context.Background(), "shared term", domain.SearchOptions{Limit: 2, Unthresholded: true})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestClear_DropsStateAndSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	embedder := &stubEmbedder{identity: domain.EmbedderIdentity{Provider: "ollama", Model: "nomic-embed-text"}}

	ix := New(testKey, store, embedder)
	require.NoError(t, ix.Insert(ctx, testChunks(), testEmbeddings()))
	require.NoError(t, ix.Clear(ctx))

	assert.Zero(t, ix.Len())
	_, err := store.Get(ctx, testKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
