// Package services implements the core application logic, orchestrating the
// fetch, segmentation, filtering and indexing pipeline behind the driving
// ports.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driving"
	"github.com/pagelens/pagelens-cli/internal/dom"
	"github.com/pagelens/pagelens-cli/internal/filter"
	"github.com/pagelens/pagelens-cli/internal/index"
	"github.com/pagelens/pagelens-cli/internal/logger"
	"github.com/pagelens/pagelens-cli/internal/readability"
	"github.com/pagelens/pagelens-cli/internal/segmenter"
)

// Ensure PageService implements the driving port.
var _ driving.PageService = (*PageService)(nil)

// PageService drives the full page pipeline. One page is indexed at a time;
// indexing a new URL replaces the current session, and repeated IndexPage
// calls for the same page join the memoized build instead of rebuilding.
type PageService struct {
	fetcher  driven.PageFetcher
	finder   driven.MainContentFinder
	embedder driven.EmbeddingService
	llm      driven.LLMService
	store    driven.SnapshotStore

	segmenter *segmenter.Segmenter
	filter    *filter.Filter
	mapper    CitationMapper

	mu      sync.Mutex
	current *session
}

// CitationMapper attributes answer sentences to source chunks. Satisfied by
// citations.Mapper.
type CitationMapper interface {
	Map(ctx context.Context, answer string, sources []domain.SearchResult) ([]domain.Citation, error)
}

// session is one memoized build. done is closed when the build finishes;
// stats and err are immutable afterwards.
type session struct {
	id    string
	key   string
	url   string
	index *index.Index

	done  chan struct{}
	stats *driving.IndexStats
	err   error
}

// Option configures a PageService.
type Option func(*PageService)

// WithEmbedder sets the optional embedding service.
func WithEmbedder(e driven.EmbeddingService) Option {
	return func(s *PageService) { s.embedder = e }
}

// WithLLM sets the optional answer generator.
func WithLLM(l driven.LLMService) Option {
	return func(s *PageService) { s.llm = l }
}

// WithSnapshotStore sets the optional embedding cache store.
func WithSnapshotStore(st driven.SnapshotStore) Option {
	return func(s *PageService) { s.store = st }
}

// WithSegmenter overrides the default segmenter.
func WithSegmenter(seg *segmenter.Segmenter) Option {
	return func(s *PageService) { s.segmenter = seg }
}

// WithFilter overrides the default chunk filter.
func WithFilter(f *filter.Filter) Option {
	return func(s *PageService) { s.filter = f }
}

// WithCitationMapper sets the citation mapper used by Ask.
func WithCitationMapper(m CitationMapper) Option {
	return func(s *PageService) { s.mapper = m }
}

// WithMainContentFinder overrides the default main-content finder.
func WithMainContentFinder(f driven.MainContentFinder) Option {
	return func(s *PageService) { s.finder = f }
}

// NewPageService creates a page service. Only the fetcher is required; every
// other collaborator is optional and its absence degrades the pipeline rather
// than failing it.
func NewPageService(fetcher driven.PageFetcher, opts ...Option) *PageService {
	s := &PageService{
		fetcher:   fetcher,
		finder:    readability.New(),
		segmenter: segmenter.New(),
		filter:    filter.New(filter.Config{Dedupe: true}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexPage fetches, segments, filters, embeds and indexes the page at
// rawURL. Concurrent and repeated calls for the same session key share one
// build; a different URL replaces the session.
func (s *PageService) IndexPage(ctx context.Context, rawURL string) (*driving.IndexStats, error) {
	key, err := SessionKey(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	s.mu.Lock()
	if s.current != nil && s.current.key == key {
		sess := s.current
		s.mu.Unlock()
		logger.Debug("Joining existing build for %s", key)
		return sess.await(ctx)
	}

	sess := &session{
		id:    uuid.NewString()[:8],
		key:   key,
		url:   rawURL,
		index: index.New(key, s.store, s.embedder),
		done:  make(chan struct{}),
	}
	s.current = sess
	s.mu.Unlock()

	sess.stats, sess.err = s.build(ctx, sess)
	close(sess.done)

	if sess.err != nil {
		// Failed builds are not memoized; the next call retries.
		s.mu.Lock()
		if s.current == sess {
			s.current = nil
		}
		s.mu.Unlock()
	}
	return sess.stats, sess.err
}

// await blocks until the in-flight build completes or ctx is cancelled.
func (sess *session) await(ctx context.Context) (*driving.IndexStats, error) {
	select {
	case <-sess.done:
		return sess.stats, sess.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// build runs the pipeline for one session.
func (s *PageService) build(ctx context.Context, sess *session) (*driving.IndexStats, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: no page fetcher configured", domain.ErrInvalidInput)
	}

	logger.Section("Indexing")
	logger.Debug("Build %s: fetching %s", sess.id, sess.url)
	body, finalURL, err := s.fetcher.Fetch(ctx, sess.url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sess.url, err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", finalURL, err)
	}

	root := dom.Body(doc)
	if s.finder != nil {
		if main := s.finder.FindMainContent(doc); main != nil {
			root = main
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document has no body", domain.ErrSegmentationEmpty)
	}

	chunks, err := s.segmenter.Segment(root, finalURL)
	if errors.Is(err, domain.ErrSegmentationEmpty) {
		logger.Warn("No visible content in %s", finalURL)
		return &driving.IndexStats{URL: finalURL}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", finalURL, err)
	}
	logger.Info("Segmented into %d chunks", len(chunks))

	chunks = s.filter.Apply(chunks)
	logger.Info("Kept %d chunks after filtering", len(chunks))
	if len(chunks) == 0 {
		return &driving.IndexStats{URL: finalURL}, nil
	}

	cacheHit, err := s.insert(ctx, sess, chunks)
	if err != nil {
		return nil, err
	}

	stats := &driving.IndexStats{
		URL:      finalURL,
		Chunks:   sess.index.Len(),
		CacheHit: cacheHit,
	}
	if sess.index.HasEmbeddings() {
		// Vectors are stored per indexed chunk, so on any embedded build the
		// two counts coincide.
		stats.Embedded = stats.Chunks
	}
	return stats, nil
}

// insert indexes the corpus, reusing cached embeddings when valid and
// generating fresh ones on an invalidated cache. Embedding failure degrades
// to a lexical-only index.
func (s *PageService) insert(ctx context.Context, sess *session, chunks []domain.Chunk) (cacheHit bool, err error) {
	err = sess.index.Insert(ctx, chunks, nil)
	if err == nil {
		return s.embedder != nil, nil
	}
	if !errors.Is(err, domain.ErrCacheInvalidated) {
		return false, fmt.Errorf("index: %w", err)
	}

	logger.Info("Embedding cache invalid, generating %d embeddings", len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, embedErr := s.embedder.EmbedBatch(ctx, texts)
	if embedErr != nil {
		logger.Warn("Embedding failed, indexing lexical-only: %v", embedErr)
		sess.index = index.New(sess.key, s.store, nil)
		if insErr := sess.index.Insert(ctx, chunks, nil); insErr != nil {
			return false, fmt.Errorf("index: %w", insErr)
		}
		return false, nil
	}

	embeddings := make(map[string][]float32, len(chunks))
	for i, c := range chunks {
		if i < len(vectors) {
			embeddings[c.ID] = vectors[i]
		}
	}
	if err := sess.index.Insert(ctx, chunks, embeddings); err != nil {
		return false, fmt.Errorf("index: %w", err)
	}
	return false, nil
}

// Search runs a hybrid query against the current session's index. With no
// indexed page the result set is empty, not an error.
func (s *PageService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	sess := s.active()
	if sess == nil {
		logger.Warn("Search with no indexed page")
		return []domain.SearchResult{}, nil
	}
	if _, err := sess.await(ctx); err != nil {
		return nil, err
	}
	return sess.index.Search(ctx, query, opts)
}

// Clear drops the current session and its persisted snapshot.
func (s *PageService) Clear(ctx context.Context) error {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	if _, err := sess.await(ctx); err != nil {
		return err
	}
	return sess.index.Clear(ctx)
}

// active returns the current session, or nil.
func (s *PageService) active() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SessionKey derives the cache key for a page: scheme, host and path, with
// query and fragment stripped so revisits of the same document share a
// snapshot.
func SessionKey(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", errors.New("empty url")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		// Local files key on their cleaned path.
		return "file://" + strings.TrimSuffix(u.Path, "/"), nil
	}

	key := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimSuffix(u.Path, "/")
	return key, nil
}
