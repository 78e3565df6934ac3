package domain

import "time"

// EmbedderIdentity names the embedding backend a snapshot was built with.
// Vectors from different identities are never comparable.
type EmbedderIdentity struct {
	// Provider is the backend kind, e.g. "ollama" or "openai".
	Provider string

	// Model is the embedding model name.
	Model string
}

// Key returns the combined identity key used for cache validation.
func (id EmbedderIdentity) Key() string {
	return id.Provider + "/" + id.Model
}

// IsZero reports whether the identity is missing. Legacy snapshots without
// identity metadata are always treated as invalid.
func (id EmbedderIdentity) IsZero() bool {
	return id.Provider == "" && id.Model == ""
}

// CacheSnapshot is the durable record written after every successful index
// build. A snapshot is reused only when its content hash matches a freshly
// computed hash of the current chunk corpus and its embedder identity matches
// the configured embedder; otherwise it is discarded in full, never partially.
type CacheSnapshot struct {
	// Chunks maps chunk ID to the stored chunk.
	Chunks map[string]Chunk `json:"chunks"`

	// Embeddings maps chunk ID to its vector.
	Embeddings map[string][]float32 `json:"embeddings"`

	// ContentHash is the deterministic hash of the chunk corpus.
	ContentHash string `json:"content_hash"`

	// Provider and Model identify the embedder the vectors came from.
	Provider string `json:"embedding_provider"`
	Model    string `json:"embedding_model"`

	// CreatedAt is when the snapshot was written.
	CreatedAt time.Time `json:"timestamp"`
}

// Identity returns the snapshot's embedder identity.
func (s *CacheSnapshot) Identity() EmbedderIdentity {
	return EmbedderIdentity{Provider: s.Provider, Model: s.Model}
}
