// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, vector search and embedding-based
// citation mapping are disabled and everything degrades to lexical matching.
//
// Implementations must be idempotent for identical input and stable in
// dimensionality per identity.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Identity returns the provider and model behind this service. Cached
	// embeddings are valid only for a matching identity.
	Identity() domain.EmbedderIdentity

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
