package domain

// ContentType classifies what kind of content a chunk holds.
type ContentType string

// Content types produced by the segmenter.
const (
	ContentTypeHeading   ContentType = "heading"
	ContentTypeParagraph ContentType = "paragraph"
	ContentTypeList      ContentType = "list"
	ContentTypeMixed     ContentType = "mixed"
)

// Locator is a re-resolvable structural pointer from a chunk back to its
// originating document node. It never owns the node; resolution may fail and
// callers treat "not found" as a normal outcome.
type Locator struct {
	// Selector is a CSS-selector-style path (#id shortcut, else
	// tag:nth-of-type segments). Empty when no selector could be built.
	Selector string

	// Path is the structural fallback: child element indices from the
	// document root, usable when the selector is ambiguous or stale.
	Path []int
}

// IsZero reports whether the locator carries no position at all.
func (l Locator) IsZero() bool {
	return l.Selector == "" && len(l.Path) == 0
}

// Chunk is a retrievable passage of page content with structural metadata.
// Chunks are created by the segmenter during one indexing pass, mutated only
// by the filter (score fields), and destroyed wholesale on session reset.
type Chunk struct {
	// ID is unique within one indexing session, derived from the heading
	// path or a positional counter.
	ID string

	// Text is what gets embedded and searched. For heading chunks it is the
	// heading path rendered as "[H1: t] [H2: t] ... content".
	Text string

	// RawText is the content without the heading-path prefix. Used for
	// fingerprinting and citation comparison.
	RawText string

	// HeadingPath holds ancestor heading titles, root to immediate parent.
	HeadingPath []string

	// HeadingLevel is the heading level 1-6, or 0 for non-heading chunks.
	HeadingLevel int

	// SemanticTag is the tag of the element the chunk came from.
	SemanticTag string

	// ContentType classifies the chunk content.
	ContentType ContentType

	// ParentChunkID links to the chunk of the enclosing heading.
	// Informational only, never an ownership relation.
	ParentChunkID string

	// Locator points back to the originating node.
	Locator Locator

	// Visible reports whether the source element was visible.
	Visible bool

	// URL is the page the chunk came from.
	URL string

	// QualityScore is the structural quality heuristic. Populated by the
	// filter, zero until then.
	QualityScore float64

	// LexicalScore is the BM25-style corpus-relative score. Populated by the
	// filter, zero until then.
	LexicalScore float64

	// TotalScore is QualityScore + LexicalScore. Populated by the filter.
	TotalScore float64
}
