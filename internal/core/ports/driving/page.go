// Package driving provides interfaces for primary/inbound adapters
// (CLI, MCP server).
package driving

import (
	"context"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// PageService is the primary port: index a page, query it, ask questions
// over it.
type PageService interface {
	// IndexPage fetches, segments, filters, embeds and indexes the page at
	// url. Returns the number of indexed chunks and whether cached
	// embeddings were reused.
	IndexPage(ctx context.Context, url string) (*IndexStats, error)

	// Search runs a hybrid query against the indexed page.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Ask answers a question over the indexed page, attributing answer
	// sentences back to source chunks.
	Ask(ctx context.Context, question string) (*Answer, error)

	// Clear drops the session's index and its persisted snapshot.
	Clear(ctx context.Context) error
}

// IndexStats summarises one indexing pass.
type IndexStats struct {
	// URL is the final URL after redirects.
	URL string

	// Chunks is the number of chunks in the index.
	Chunks int

	// Embedded is the number of chunks carrying an embedding.
	Embedded int

	// CacheHit reports whether stored embeddings were reused.
	CacheHit bool
}

// Answer is the result of an Ask call.
type Answer struct {
	// Text is the generated answer. Empty when no LLM is configured; the
	// ranked results are still returned.
	Text string

	// Citations attribute answer sentences to positions in Results.
	Citations []domain.Citation

	// Results are the ranked chunks the answer was generated from.
	Results []domain.SearchResult
}
