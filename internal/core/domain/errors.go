package domain

import "errors"

// Domain errors represent expected, recoverable conditions in the retrieval
// pipeline. These are distinct from infrastructure errors; none of them
// should surface to the user as a hard failure.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSegmentationEmpty indicates no chunks could be produced after
	// exhausting every fallback. Callers treat the page as having nothing
	// indexable, not as a failure.
	ErrSegmentationEmpty = errors.New("no indexable content")

	// ErrCacheInvalidated is returned by Insert when a prior snapshot existed
	// but failed validation. The index has been cleared as a side effect; the
	// caller is expected to regenerate embeddings and insert again.
	ErrCacheInvalidated = errors.New("embedding cache invalidated")

	// ErrMalformedSnapshot indicates a stored snapshot could not be decoded.
	// Treated identically to a cache miss, never partially reused.
	ErrMalformedSnapshot = errors.New("malformed cache snapshot")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable. Search degrades to lexical-only.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Questions return ranked results without a generated answer.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
