// Package segmenter partitions a document subtree into typed chunks, using
// the heading hierarchy as the primary boundary signal with semantic-tag and
// paragraph grouping as fallbacks.
package segmenter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/dom"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// Default thresholds.
const (
	// DefaultMinSectionChars is the minimum content-span length for a
	// heading chunk to be materialized. Prevents heading-only chunks.
	DefaultMinSectionChars = 30

	// DefaultMinOrphanChars is the minimum length for free-floating content
	// not covered by any heading span.
	DefaultMinOrphanChars = 50

	// DefaultOrphanBatchSize caps how many adjacent orphan elements are
	// grouped into one chunk.
	DefaultOrphanBatchSize = 5

	// DefaultMinChunkChars is the absolute floor: chunks shorter than this
	// after trimming are dropped regardless of source.
	DefaultMinChunkChars = 10
)

// linkBoilerplate matches residual "learn more"-style link text that adds no
// content to a span.
var linkBoilerplate = regexp.MustCompile(`(?i)\b(learn more|read more|see more|show more|click here|find out more|continue reading)\b[.…→»]*`)

// orphanTags are the block elements considered in the second pass for
// content not covered by any heading span.
var orphanTags = map[string]bool{
	"p":          true,
	"blockquote": true,
	"pre":        true,
	"ul":         true,
	"ol":         true,
	"dl":         true,
	"table":      true,
}

// Segmenter converts a document subtree into an ordered set of chunks.
type Segmenter struct {
	minSectionChars int
	minOrphanChars  int
	orphanBatchSize int
	minChunkChars   int
	excludedTags    map[string]bool
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithMinSectionChars sets the heading-span materialization threshold.
func WithMinSectionChars(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.minSectionChars = n
		}
	}
}

// WithMinOrphanChars sets the orphan-content threshold.
func WithMinOrphanChars(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.minOrphanChars = n
		}
	}
}

// WithExcludedTags replaces the set of tags whose subtrees are skipped
// (embedded frames and similar).
func WithExcludedTags(tags ...string) Option {
	return func(s *Segmenter) {
		s.excludedTags = make(map[string]bool, len(tags))
		for _, t := range tags {
			s.excludedTags[t] = true
		}
	}
}

// New creates a Segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		minSectionChars: DefaultMinSectionChars,
		minOrphanChars:  DefaultMinOrphanChars,
		orphanBatchSize: DefaultOrphanBatchSize,
		minChunkChars:   DefaultMinChunkChars,
		excludedTags: map[string]bool{
			"iframe": true,
			"object": true,
			"embed":  true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment partitions the subtree under root into chunks. The url is stamped
// onto every chunk. Returns domain.ErrSegmentationEmpty when no chunk
// survives every fallback; callers treat that as "nothing indexable", not as
// a failure.
func (s *Segmenter) Segment(root *html.Node, url string) ([]domain.Chunk, error) {
	if root == nil {
		return nil, domain.ErrSegmentationEmpty
	}

	logger.Section("Segmentation")

	b := &builder{seg: s, url: url, covered: make(map[*html.Node]bool), seenIDs: make(map[string]int)}

	headings := s.collectHeadings(root)
	logger.Debug("Visible headings: %d", len(headings))

	if len(headings) > 0 {
		forest := buildForest(headings)
		b.chunkHeadings(forest)
		b.chunkOrphans(root)
	} else {
		logger.Debug("No visible headings, falling back to semantic containers")
		b.chunkContainers(root)
	}

	chunks := dedupe(b.chunks, s.minChunkChars)
	logger.Info("Segmented into %d chunks (%d before dedupe)", len(chunks), len(b.chunks))

	if len(chunks) == 0 {
		return nil, domain.ErrSegmentationEmpty
	}
	return chunks, nil
}

// collectHeadings gathers visible h1..h6 elements in document order,
// skipping excluded subtrees.
func (s *Segmenter) collectHeadings(root *html.Node) []*html.Node {
	var headings []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && s.excludedTags[n.Data] {
			return false
		}
		if dom.HeadingLevel(n) > 0 && dom.Visible(n) {
			headings = append(headings, n)
		}
		return true
	})
	return headings
}

// builder accumulates chunks for one segmentation pass.
type builder struct {
	seg     *Segmenter
	url     string
	chunks  []domain.Chunk
	covered map[*html.Node]bool
	seenIDs map[string]int
	counter int
}

// chunkHeadings materializes a chunk per heading whose content span clears
// the section threshold.
func (b *builder) chunkHeadings(forest []*headingNode) {
	ids := make(map[*headingNode]string)

	for _, h := range flatten(forest) {
		b.covered[h.node] = true

		content, types := b.contentSpan(h)
		if utf8.RuneCountInString(content) < b.seg.minSectionChars {
			logger.Debug("Skipping heading %q: span below %d chars", h.title, b.seg.minSectionChars)
			continue
		}

		path := h.path()
		id := b.uniqueID(slugPath(path))
		ids[h] = id

		parentID := ""
		if h.parent != nil {
			parentID = ids[h.parent]
		}

		b.chunks = append(b.chunks, domain.Chunk{
			ID:            id,
			Text:          renderHeadingText(path, content),
			RawText:       content,
			HeadingPath:   path,
			HeadingLevel:  h.level,
			SemanticTag:   semanticTag(h.node),
			ContentType:   spanContentType(types),
			ParentChunkID: parentID,
			Locator:       dom.BuildLocator(h.node),
			Visible:       true,
			URL:           b.url,
		})
	}
}

// contentSpan collects text from every sibling element following the heading
// up to the next heading. Walking stops at the first heading whose level is
// <= the current one; a deeper nested heading also ends the span early so its
// content is not duplicated. Excluded subtrees are skipped without
// terminating the walk.
func (b *builder) contentSpan(h *headingNode) (string, map[domain.ContentType]bool) {
	var parts []string
	types := make(map[domain.ContentType]bool)

	for sib := h.node.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		if b.seg.excludedTags[sib.Data] {
			continue
		}
		if dom.HeadingLevel(sib) > 0 {
			break
		}
		if dom.ContainsHeading(sib) {
			// The sibling wraps deeper structure that belongs to nested
			// headings; the span ends here.
			break
		}
		if !dom.Visible(sib) {
			continue
		}

		text, ct := elementContribution(sib)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		types[ct] = true
		b.covered[sib] = true
	}

	content := strings.TrimSpace(strings.Join(parts, " "))
	content = stripLinkBoilerplate(content)
	return content, types
}

// elementContribution extracts one span element's text and content type.
// Tables always get the pipe-delimited serialization, even mid-span.
func elementContribution(n *html.Node) (string, domain.ContentType) {
	switch n.Data {
	case "table":
		return serializeTable(n), domain.ContentTypeMixed
	case "ul", "ol", "dl":
		return dom.Text(n), domain.ContentTypeList
	case "p":
		return dom.Text(n), domain.ContentTypeParagraph
	default:
		return dom.Text(n), domain.ContentTypeParagraph
	}
}

// serializeTable renders a table row-by-row as "col1 | col2" lines behind a
// Table: marker.
func serializeTable(table *html.Node) string {
	var rows []string
	dom.Walk(table, func(n *html.Node) bool {
		if dom.IsElement(n, "tr") {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if dom.IsElement(c, "td", "th") {
					cells = append(cells, dom.Text(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
			return false
		}
		return true
	})
	if len(rows) == 0 {
		return ""
	}
	return "Table: " + strings.Join(rows, "\n")
}

// chunkOrphans captures substantial content not covered by any heading span:
// leading paragraphs before the first heading, free-floating sections.
// Adjacent qualifying elements are grouped to avoid fragment explosion.
func (b *builder) chunkOrphans(root *html.Node) {
	var batch []*html.Node
	var batchText []string

	flush := func() {
		if len(batch) == 0 {
			return
		}
		content := stripLinkBoilerplate(strings.TrimSpace(strings.Join(batchText, " ")))
		if content != "" {
			ct := domain.ContentTypeParagraph
			if len(batch) > 1 {
				ct = domain.ContentTypeMixed
			}
			b.chunks = append(b.chunks, domain.Chunk{
				ID:          b.uniqueID(""),
				Text:        content,
				RawText:     content,
				SemanticTag: semanticTag(batch[0]),
				ContentType: ct,
				Locator:     dom.BuildLocator(batch[0]),
				Visible:     true,
				URL:         b.url,
			})
		}
		batch = nil
		batchText = nil
	}

	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && b.seg.excludedTags[n.Data] {
			return false
		}
		if b.covered[n] {
			flush()
			return false
		}
		if n.Type != html.ElementNode || !orphanTags[n.Data] {
			return true
		}
		if !dom.Visible(n) {
			return false
		}

		text, _ := elementContribution(n)
		if utf8.RuneCountInString(text) < b.seg.minOrphanChars {
			return false
		}

		batch = append(batch, n)
		batchText = append(batchText, text)
		if len(batch) >= b.seg.orphanBatchSize {
			flush()
		}
		return false
	})
	flush()
}

// chunkContainers is the no-headings fallback: chunk by semantic container
// tags, and when none exist treat the whole root as a single unit.
func (b *builder) chunkContainers(root *html.Node) {
	var containers []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && b.seg.excludedTags[n.Data] {
			return false
		}
		if dom.IsElement(n, "section", "article", "main") || strings.EqualFold(dom.Attr(n, "role"), "region") || strings.EqualFold(dom.Attr(n, "role"), "main") {
			if dom.Visible(n) {
				containers = append(containers, n)
				return false
			}
		}
		return true
	})

	if len(containers) == 0 {
		containers = []*html.Node{root}
	}

	for _, c := range containers {
		content := stripLinkBoilerplate(dom.Text(c))
		if utf8.RuneCountInString(content) < b.seg.minChunkChars {
			continue
		}
		b.chunks = append(b.chunks, domain.Chunk{
			ID:          b.uniqueID(""),
			Text:        content,
			RawText:     content,
			SemanticTag: c.Data,
			ContentType: domain.ContentTypeMixed,
			Locator:     dom.BuildLocator(c),
			Visible:     true,
			URL:         b.url,
		})
	}
}

// uniqueID returns base made unique within the session, or a positional
// counter ID when base is empty.
func (b *builder) uniqueID(base string) string {
	if base == "" {
		b.counter++
		base = fmt.Sprintf("chunk-%d", b.counter)
	}
	n := b.seenIDs[base]
	b.seenIDs[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

// renderHeadingText prefixes content with the heading path:
// "[H1: Title] [H2: Sub] content".
func renderHeadingText(path []string, content string) string {
	var sb strings.Builder
	for i, title := range path {
		fmt.Fprintf(&sb, "[H%d: %s] ", i+1, title)
	}
	sb.WriteString(content)
	return sb.String()
}

// slugPath derives a chunk ID from the heading path.
func slugPath(path []string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		if slug := slugify(p); slug != "" {
			parts = append(parts, slug)
		}
	}
	return strings.Join(parts, "--")
}

func slugify(s string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(sb.String(), "-")
}

// semanticTag returns the nearest semantic ancestor tag, falling back to the
// element's own tag.
func semanticTag(n *html.Node) string {
	for cur := n; cur != nil; cur = cur.Parent {
		if dom.IsElement(cur, "article", "main", "section", "aside", "nav") {
			return cur.Data
		}
	}
	if n != nil && n.Type == html.ElementNode {
		return n.Data
	}
	return ""
}

// spanContentType reduces the content types seen in a heading span: a single
// kind wins outright, several kinds report mixed.
func spanContentType(types map[domain.ContentType]bool) domain.ContentType {
	if len(types) == 1 {
		for ct := range types {
			return ct
		}
	}
	if len(types) > 1 {
		return domain.ContentTypeMixed
	}
	return domain.ContentTypeHeading
}

// stripLinkBoilerplate removes "learn more / read more"-style link phrases.
func stripLinkBoilerplate(s string) string {
	return dom.CollapseSpace(linkBoilerplate.ReplaceAllString(s, " "))
}

// dedupe drops chunks by a case-insensitive trimmed RawText key and discards
// anything shorter than minChars.
func dedupe(chunks []domain.Chunk, minChars int) []domain.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		raw := strings.TrimSpace(c.RawText)
		if utf8.RuneCountInString(raw) < minChars {
			continue
		}
		key := strings.ToLower(raw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
