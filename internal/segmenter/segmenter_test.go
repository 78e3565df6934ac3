package segmenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/dom"
)

const testURL = "https://example.com/doc"

func segment(t *testing.T, src string, opts ...Option) []domain.Chunk {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)

	chunks, err := New(opts...).Segment(dom.Body(doc), testURL)
	require.NoError(t, err)
	return chunks
}

func TestSegment_HeadingHierarchy(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Intro</h1>
		<p>This paragraph introduces the topic in enough words to pass.</p>
		<h2>Details</h2>
		<p>This paragraph covers the details at a comfortable length.</p>
	</body>`)

	require.Len(t, chunks, 2)

	assert.Equal(t, []string{"Intro"}, chunks[0].HeadingPath)
	assert.Equal(t, 1, chunks[0].HeadingLevel)
	assert.Equal(t, "intro", chunks[0].ID)
	assert.Contains(t, chunks[0].RawText, "introduces the topic")
	assert.NotContains(t, chunks[0].RawText, "covers the details")

	assert.Equal(t, []string{"Intro", "Details"}, chunks[1].HeadingPath)
	assert.Equal(t, 2, chunks[1].HeadingLevel)
	assert.Equal(t, "intro--details", chunks[1].ID)
	assert.Equal(t, chunks[0].ID, chunks[1].ParentChunkID)
}

func TestSegment_TextCarriesHeadingPrefix(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Guide</h1>
		<h2>Setup</h2>
		<p>Install the binary and point it at your configuration file.</p>
	</body>`)

	require.Len(t, chunks, 1)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "[H1: Guide] [H2: Setup] "), "got %q", chunks[0].Text)
	assert.Equal(t, testURL, chunks[0].URL)
}

func TestSegment_SkippedHeadingLevelsNest(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Top</h1>
		<p>The opening section has enough text to be materialized here.</p>
		<h3>Deep</h3>
		<p>A subsection reached by skipping a level still nests under Top.</p>
		<h2>Next</h2>
		<p>A later sibling at level two closes the deeper subsection off.</p>
	</body>`)

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"Top"}, chunks[0].HeadingPath)
	assert.Equal(t, []string{"Top", "Deep"}, chunks[1].HeadingPath)
	assert.Equal(t, []string{"Top", "Next"}, chunks[2].HeadingPath)
	assert.Equal(t, chunks[0].ID, chunks[1].ParentChunkID)
	assert.Equal(t, chunks[0].ID, chunks[2].ParentChunkID)
}

func TestSegment_HeadingOnlySectionSkipped(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Empty</h1>
		<h2>Full</h2>
		<p>Only this section carries content beyond its own heading text.</p>
	</body>`)

	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Empty", "Full"}, chunks[0].HeadingPath)
	assert.Empty(t, chunks[0].ParentChunkID)
}

func TestSegment_TableSerialization(t *testing.T) {
	chunks := segment(t, `<body>
		<h2>Pricing</h2>
		<table>
			<tr><th>Plan</th><th>Cost</th></tr>
			<tr><td>Basic</td><td>Free</td></tr>
		</table>
	</body>`, WithMinSectionChars(5))

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].RawText, "Table: Plan | Cost")
	assert.Contains(t, chunks[0].RawText, "Basic | Free")
	assert.Equal(t, domain.ContentTypeMixed, chunks[0].ContentType)
}

func TestSegment_HiddenContentExcluded(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Title</h1>
		<p>The visible paragraph stays part of the indexed section body.</p>
		<p style="display:none">secret text that must never be indexed</p>
	</body>`)

	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0].RawText, "secret")
}

func TestSegment_ExcludedTagsSkippedWithoutTerminating(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Media</h1>
		<p>Text before the embedded frame keeps the section going fine.</p>
		<iframe src="https://ads.example.com"></iframe>
		<p>Text after the frame still belongs to the very same section.</p>
	</body>`)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].RawText, "before the embedded frame")
	assert.Contains(t, chunks[0].RawText, "after the frame")
}

func TestSegment_OrphanParagraphsBeforeFirstHeading(t *testing.T) {
	chunks := segment(t, `<body>
		<p>A lead paragraph appearing before any heading with plenty of content to clear the orphan threshold.</p>
		<h1>Section</h1>
		<p>The heading owns this paragraph with enough length to pass.</p>
	</body>`)

	require.Len(t, chunks, 2)

	var orphan, section *domain.Chunk
	for i := range chunks {
		if len(chunks[i].HeadingPath) == 0 {
			orphan = &chunks[i]
		} else {
			section = &chunks[i]
		}
	}
	require.NotNil(t, orphan)
	require.NotNil(t, section)
	assert.Contains(t, orphan.RawText, "lead paragraph")
	assert.Contains(t, section.RawText, "owns this paragraph")
}

func TestSegment_NoHeadingsFallsBackToContainers(t *testing.T) {
	chunks := segment(t, `<body>
		<section><p>The first standalone section of the page content.</p></section>
		<section><p>The second standalone section of the page content here.</p></section>
	</body>`)

	require.Len(t, chunks, 2)
	assert.Equal(t, "section", chunks[0].SemanticTag)
	assert.Equal(t, domain.ContentTypeMixed, chunks[0].ContentType)
}

func TestSegment_NoContainersUsesWholeRoot(t *testing.T) {
	chunks := segment(t, `<body><div>Loose text without any semantic structure at all.</div></body>`)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].RawText, "Loose text")
}

func TestSegment_EmptyDocument(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<body></body>`))
	require.NoError(t, err)

	chunks, err := New().Segment(dom.Body(doc), testURL)
	assert.ErrorIs(t, err, domain.ErrSegmentationEmpty)
	assert.Nil(t, chunks)
}

func TestSegment_NilRoot(t *testing.T) {
	_, err := New().Segment(nil, testURL)
	assert.ErrorIs(t, err, domain.ErrSegmentationEmpty)
}

func TestSegment_DuplicateSectionsDeduped(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>One</h1>
		<p>Exactly the same sentence appears under both of the headings.</p>
		<h1>Two</h1>
		<p>Exactly the same sentence appears under both of the headings.</p>
	</body>`)

	assert.Len(t, chunks, 1)
}

func TestSegment_LinkBoilerplateStripped(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Article</h1>
		<p>Substantial body text for the section sits here. Read more...</p>
	</body>`)

	require.Len(t, chunks, 1)
	assert.NotContains(t, strings.ToLower(chunks[0].RawText), "read more")
}

func TestSegment_DuplicateHeadingIDsDisambiguated(t *testing.T) {
	chunks := segment(t, `<body>
		<h1>Setup</h1>
		<p>The first setup section describes installing on Linux hosts.</p>
		<h1>Setup</h1>
		<p>The second setup section describes installing on macOS hosts.</p>
	</body>`)

	require.Len(t, chunks, 2)
	assert.Equal(t, "setup", chunks[0].ID)
	assert.Equal(t, "setup-2", chunks[1].ID)
}

func TestSegment_LocatorPointsAtHeading(t *testing.T) {
	chunks := segment(t, `<body>
		<h1 id="overview">Overview</h1>
		<p>Some section content of a comfortable length goes right here.</p>
	</body>`)

	require.Len(t, chunks, 1)
	assert.Equal(t, "#overview", chunks[0].Locator.Selector)
}
