package readability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/dom"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

// filler produces enough text to clear the candidate threshold.
func filler() string {
	return strings.Repeat("Meaningful article prose that belongs to the main column. ", 6)
}

func TestFindMainContent_PrefersMainTag(t *testing.T) {
	doc := parse(t, `<body><nav>site nav</nav><main><p>`+filler()+`</p></main></body>`)

	n := New().FindMainContent(doc)

	require.NotNil(t, n)
	assert.Equal(t, "main", n.Data)
}

func TestFindMainContent_RoleMain(t *testing.T) {
	doc := parse(t, `<body><div role="main"><p>`+filler()+`</p></div></body>`)

	n := New().FindMainContent(doc)

	require.NotNil(t, n)
	assert.Equal(t, "main", dom.Attr(n, "role"))
}

func TestFindMainContent_SingleArticle(t *testing.T) {
	doc := parse(t, `<body><article><p>`+filler()+`</p></article></body>`)

	n := New().FindMainContent(doc)

	require.NotNil(t, n)
	assert.Equal(t, "article", n.Data)
}

func TestFindMainContent_MultipleArticlesIsListing(t *testing.T) {
	doc := parse(t, `<body>
		<article><p>`+filler()+`</p></article>
		<article><p>`+filler()+`</p></article>
	</body>`)

	assert.Nil(t, New().FindMainContent(doc))
}

func TestFindMainContent_ContainerHint(t *testing.T) {
	doc := parse(t, `<body>
		<div class="sidebar"><p>`+filler()+`</p></div>
		<div id="content"><p>`+filler()+filler()+`</p></div>
	</body>`)

	n := New().FindMainContent(doc)

	require.NotNil(t, n)
	assert.Equal(t, "content", dom.Attr(n, "id"))
}

func TestFindMainContent_ChromeHintRejected(t *testing.T) {
	// "main-nav" contains a container hint but is chrome; density wins below.
	doc := parse(t, `<body>
		<div class="main-nav"><p>`+filler()+`</p></div>
	</body>`)

	n := New().FindMainContent(doc)

	// The only hinted container is chrome, so hint matching finds nothing
	// and density scoring picks the div anyway.
	require.NotNil(t, n)
	assert.Equal(t, "main-nav", dom.Attr(n, "class"))
}

func TestFindMainContent_NothingBeatsBody(t *testing.T) {
	doc := parse(t, `<body><p>short</p></body>`)

	assert.Nil(t, New().FindMainContent(doc))
}
