// Package index implements the hybrid retrieval index: a lexical BM25 store
// and an embedding map blended into one ranked result set, with a
// fingerprint-validated snapshot cache so stored embeddings are reused across
// sessions only while still valid.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// lexicalCandidateFloor is the low internal threshold used purely to widen
// the lexical candidate pool before blending.
const lexicalCandidateFloor = 0.1

// Index is the hybrid retrieval index for one session key. Searches are
// read-only and may run concurrently once built; Insert and Clear are
// serialized by the caller (the session build lock).
type Index struct {
	mu sync.RWMutex

	sessionKey string
	store      driven.SnapshotStore
	embedder   driven.EmbeddingService

	chunks     map[string]domain.Chunk
	order      []string
	embeddings map[string][]float32
	lexical    *lexicalEngine
}

// New creates an empty index for a session key. Both store and embedder are
// optional: without a store nothing persists, without an embedder the index
// is lexical-only.
func New(sessionKey string, store driven.SnapshotStore, embedder driven.EmbeddingService) *Index {
	return &Index{
		sessionKey: sessionKey,
		store:      store,
		embedder:   embedder,
		chunks:     make(map[string]domain.Chunk),
		embeddings: make(map[string][]float32),
	}
}

// HasEmbeddings reports whether any chunk carries a vector.
func (ix *Index) HasEmbeddings() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.embeddings) > 0
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.order)
}

// Insert builds the index from a chunk corpus.
//
// When embeddings is nil, Insert tries to adopt the stored snapshot for this
// session key. The snapshot is valid only if its content hash matches a
// freshly computed hash of the incoming corpus AND its embedder identity
// matches the configured embedder; legacy snapshots without identity are
// always invalid. An invalid or missing snapshot clears the index and
// returns domain.ErrCacheInvalidated: the caller must generate embeddings
// and call Insert again.
//
// When embeddings is provided, the corpus and vectors are indexed and
// persisted as one atomic snapshot.
func (ix *Index) Insert(ctx context.Context, chunks []domain.Chunk, embeddings map[string][]float32) error {
	if len(chunks) == 0 {
		return domain.ErrSegmentationEmpty
	}

	hash, err := ContentHash(chunks)
	if err != nil {
		return fmt.Errorf("content hash: %w", err)
	}

	if embeddings == nil {
		if ix.embedder == nil {
			// Lexical-only mode: nothing to reuse or regenerate.
			ix.populate(chunks, nil)
			return nil
		}
		return ix.adoptSnapshot(ctx, chunks, hash)
	}

	ix.populate(chunks, embeddings)

	if ix.store != nil {
		snap := ix.buildSnapshot(chunks, embeddings, hash)
		if err := ix.store.Put(ctx, ix.sessionKey, snap); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		logger.Debug("Snapshot persisted for %s (%d chunks, %d vectors)", ix.sessionKey, len(chunks), len(embeddings))
	}
	return nil
}

// adoptSnapshot validates the stored snapshot against the incoming corpus
// and adopts its embeddings on a hit. Any miss clears the cache in full -
// snapshots are never partially reused.
func (ix *Index) adoptSnapshot(ctx context.Context, chunks []domain.Chunk, hash string) error {
	if ix.store == nil {
		// No store means nothing persisted: a guaranteed miss.
		logger.Debug("No snapshot store configured, regenerating embeddings for %s", ix.sessionKey)
		ix.reset()
		return domain.ErrCacheInvalidated
	}

	snap, err := ix.store.Get(ctx, ix.sessionKey)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("No snapshot for %s", ix.sessionKey)
		ix.reset()
		return domain.ErrCacheInvalidated
	case errors.Is(err, domain.ErrMalformedSnapshot):
		logger.Warn("Malformed snapshot for %s, treating as full miss", ix.sessionKey)
		ix.discard(ctx)
		return domain.ErrCacheInvalidated
	case err != nil:
		return fmt.Errorf("load snapshot: %w", err)
	}

	if !ix.snapshotValid(snap, hash) {
		ix.discard(ctx)
		return domain.ErrCacheInvalidated
	}

	logger.Info("Snapshot cache hit for %s (%d vectors reused)", ix.sessionKey, len(snap.Embeddings))
	ix.populate(chunks, snap.Embeddings)
	return nil
}

// snapshotValid checks the reuse conjunction: content hash AND embedder
// identity.
func (ix *Index) snapshotValid(snap *domain.CacheSnapshot, hash string) bool {
	if snap.Identity().IsZero() {
		logger.Debug("Snapshot for %s predates identity metadata, discarding", ix.sessionKey)
		return false
	}
	if snap.ContentHash != hash {
		logger.Debug("Snapshot content hash mismatch for %s", ix.sessionKey)
		return false
	}
	if snap.Identity().Key() != ix.embedder.Identity().Key() {
		logger.Debug("Snapshot embedder identity mismatch: %s vs %s",
			snap.Identity().Key(), ix.embedder.Identity().Key())
		return false
	}
	return true
}

// populate replaces the in-memory state with a fresh corpus.
func (ix *Index) populate(chunks []domain.Chunk, embeddings map[string][]float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.chunks = make(map[string]domain.Chunk, len(chunks))
	ix.order = make([]string, 0, len(chunks))
	ix.embeddings = make(map[string][]float32, len(embeddings))

	for _, c := range chunks {
		ix.chunks[c.ID] = c
		ix.order = append(ix.order, c.ID)
		if vec, ok := embeddings[c.ID]; ok {
			ix.embeddings[c.ID] = vec
		}
	}
	ix.lexical = newLexicalEngine(chunks)
}

// buildSnapshot assembles the durable record for the current corpus.
func (ix *Index) buildSnapshot(chunks []domain.Chunk, embeddings map[string][]float32, hash string) *domain.CacheSnapshot {
	snap := &domain.CacheSnapshot{
		Chunks:      make(map[string]domain.Chunk, len(chunks)),
		Embeddings:  embeddings,
		ContentHash: hash,
		CreatedAt:   time.Now(),
	}
	for _, c := range chunks {
		snap.Chunks[c.ID] = c
	}
	if ix.embedder != nil {
		id := ix.embedder.Identity()
		snap.Provider = id.Provider
		snap.Model = id.Model
	}
	return snap
}

// reset drops the in-memory state.
func (ix *Index) reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = make(map[string]domain.Chunk)
	ix.order = nil
	ix.embeddings = make(map[string][]float32)
	ix.lexical = nil
}

// discard drops both the in-memory state and the stored snapshot.
func (ix *Index) discard(ctx context.Context) {
	ix.reset()
	if ix.store != nil {
		if err := ix.store.Delete(ctx, ix.sessionKey); err != nil {
			logger.Warn("Deleting snapshot for %s failed: %v", ix.sessionKey, err)
		}
	}
}

// Clear drops the lexical index and in-memory caches and reinitializes an
// empty index under the same session key.
func (ix *Index) Clear(ctx context.Context) error {
	ix.discard(ctx)
	return nil
}

// Search runs a query against the index. Lexical candidates are gathered at
// a low internal floor, blended 50/50 with cosine-derived vector scores, and
// chunks ranking highly on vector score alone are added before the threshold
// cut. Embedder failures degrade to lexical-only results rather than failing
// the query.
func (ix *Index) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	opts = opts.Defaults()

	ix.mu.RLock()
	lexical := ix.lexical
	ix.mu.RUnlock()
	if lexical == nil {
		return []domain.SearchResult{}, nil
	}

	candidateLimit := opts.Limit
	if opts.Hybrid {
		candidateLimit = 2 * opts.Limit
	}
	lexHits := lexical.search(query, candidateLimit, lexicalCandidateFloor)
	logger.Debug("Lexical candidates: %d", len(lexHits))

	vecScores := ix.vectorScores(ctx, query, opts)

	results := ix.blend(lexHits, vecScores, opts)
	logger.Debug("Results after blend/threshold: %d", len(results))
	return results, nil
}

// vectorScores embeds the query and maps cosine similarity against every
// cached embedding to a 0-1 score. Returns nil when hybrid search is off,
// no embeddings exist, or the embedder is unavailable.
func (ix *Index) vectorScores(ctx context.Context, query string, opts domain.SearchOptions) map[string]float64 {
	if !opts.Hybrid || ix.embedder == nil || !ix.HasEmbeddings() {
		return nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, degrading to lexical-only: %v", err)
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[string]float64, len(ix.embeddings))
	for id, vec := range ix.embeddings {
		scores[id] = (CosineSimilarity(queryVec, vec) + 1) / 2
	}
	return scores
}

// blend combines lexical and vector scores into the final ranked result set.
func (ix *Index) blend(lexHits []lexicalHit, vecScores map[string]float64, opts domain.SearchOptions) []domain.SearchResult {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(lexHits)+opts.Limit)
	lexSeen := make(map[string]bool, len(lexHits))

	for _, hit := range lexHits {
		chunk, ok := ix.chunks[hit.chunkID]
		if !ok {
			continue
		}
		lexSeen[hit.chunkID] = true

		lex := clamp01(hit.score)
		vec := vecScores[hit.chunkID]
		score := lex
		if vecScores != nil {
			score = 0.5*lex + 0.5*vec
		}
		results = append(results, domain.SearchResult{
			Chunk:        chunk,
			Score:        score,
			LexicalScore: lex,
			VectorScore:  vec,
		})
	}

	// Chunks that rank highly on vector score alone still deserve a seat;
	// their lexical score is treated as 0.
	if vecScores != nil {
		extra := make([]domain.SearchResult, 0, len(vecScores))
		for id, vec := range vecScores {
			if lexSeen[id] {
				continue
			}
			chunk, ok := ix.chunks[id]
			if !ok {
				continue
			}
			extra = append(extra, domain.SearchResult{
				Chunk:       chunk,
				Score:       0.5 * vec,
				VectorScore: vec,
			})
		}
		sort.SliceStable(extra, func(i, j int) bool { return extra[i].VectorScore > extra[j].VectorScore })
		if len(extra) > opts.Limit {
			extra = extra[:opts.Limit]
		}
		results = append(results, extra...)
	}

	filtered := results[:0]
	for _, r := range results {
		if opts.Unthresholded || r.Score >= opts.Threshold {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score > filtered[j].Score })
	if len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched dimensions or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
