package domain

// Citation attributes one answer sentence to the source chunks that likely
// support it. SourceIndices reference positions in the ranked result list the
// mapper was given, not chunk IDs.
type Citation struct {
	// Start and End are byte offsets of the sentence within the answer.
	Start int
	End   int

	// SourceIndices are positions in the ranked result list.
	SourceIndices []int

	// Confidence is the best similarity among accepted sources, or 0.5 when
	// the match was lexical-only.
	Confidence float64
}
