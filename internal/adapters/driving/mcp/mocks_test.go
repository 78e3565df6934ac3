package mcp

import (
	"context"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driving"
)

// mockPageService implements driving.PageService for handler tests.
type mockPageService struct {
	indexedURL string
	lastQuery  string
	lastOpts   domain.SearchOptions

	stats    driving.IndexStats
	results  []domain.SearchResult
	answer   driving.Answer
	indexErr error
	askErr   error
}

func (m *mockPageService) IndexPage(_ context.Context, url string) (*driving.IndexStats, error) {
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	m.indexedURL = url
	stats := m.stats
	stats.URL = url
	return &stats, nil
}

func (m *mockPageService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, nil
}

func (m *mockPageService) Ask(_ context.Context, _ string) (*driving.Answer, error) {
	if m.askErr != nil {
		return nil, m.askErr
	}
	answer := m.answer
	return &answer, nil
}

func (m *mockPageService) Clear(context.Context) error { return nil }

func testPorts() (*Ports, *mockPageService) {
	mock := &mockPageService{
		stats: driving.IndexStats{Chunks: 4, Embedded: 4, CacheHit: true},
		results: []domain.SearchResult{
			{
				Chunk: domain.Chunk{
					ID:          "setup",
					RawText:     "Run the installer.",
					HeadingPath: []string{"Guide", "Setup"},
					Locator:     domain.Locator{Selector: "#setup"},
				},
				Score: 0.88,
			},
		},
	}
	return &Ports{Page: mock}, mock
}
