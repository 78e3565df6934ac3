package domain

// DefaultSearchLimit is the maximum number of results when none is given.
const DefaultSearchLimit = 10

// DefaultSearchThreshold is the minimum combined score to keep a result.
const DefaultSearchThreshold = 0.7

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int

	// Threshold is the minimum combined score to keep a result (default 0.7).
	// Set Unthresholded to search without a floor.
	Threshold float64

	// Unthresholded disables the score floor entirely.
	Unthresholded bool

	// Hybrid enables combined lexical + vector search (default when built
	// through Defaults). When false, search is lexical-only.
	Hybrid bool
}

// Defaults returns a copy of opts with zero values replaced by the
// documented defaults.
func (o SearchOptions) Defaults() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Threshold <= 0 && !o.Unthresholded {
		o.Threshold = DefaultSearchThreshold
	}
	return o
}

// DefaultSearchOptions returns the documented defaults: limit 10,
// threshold 0.7, hybrid enabled.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:     DefaultSearchLimit,
		Threshold: DefaultSearchThreshold,
		Hybrid:    true,
	}
}

// SearchResult represents a single search hit. Produced fresh per query,
// never persisted.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the combined relevance score in [0, 1].
	Score float64

	// LexicalScore is the normalized lexical component of Score.
	LexicalScore float64

	// VectorScore is the cosine-derived component of Score, 0 when the
	// chunk had no embedding.
	VectorScore float64
}
