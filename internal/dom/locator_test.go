package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

func findNth(root *html.Node, tag string, n int) *html.Node {
	var found *html.Node
	count := 0
	Walk(root, func(node *html.Node) bool {
		if found != nil {
			return false
		}
		if IsElement(node, tag) {
			count++
			if count == n {
				found = node
				return false
			}
		}
		return true
	})
	return found
}

func TestBuildLocator_UsesIDWhenPresent(t *testing.T) {
	doc := parse(t, `<body><div id="content"><p>one</p><p>two</p></div></body>`)
	second := findNth(doc, "p", 2)
	require.NotNil(t, second)

	loc := BuildLocator(second)

	assert.Equal(t, "#content > p:nth-of-type(2)", loc.Selector)
	assert.NotEmpty(t, loc.Path)
}

func TestBuildLocator_NthOfTypeWithoutID(t *testing.T) {
	doc := parse(t, `<body><p>one</p><p>two</p></body>`)
	second := findNth(doc, "p", 2)
	require.NotNil(t, second)

	loc := BuildLocator(second)

	assert.Equal(t, "html:nth-of-type(1) > body:nth-of-type(1) > p:nth-of-type(2)", loc.Selector)
}

func TestResolve_RoundTrip(t *testing.T) {
	doc := parse(t, `<body><div id="main"><p>first</p><ul><li>a</li></ul><p>second</p></div></body>`)
	target := findNth(doc, "p", 2)
	require.NotNil(t, target)

	loc := BuildLocator(target)
	resolved := Resolve(doc, loc)

	assert.Same(t, target, resolved)
}

func TestResolve_PathFallbackWhenSelectorStale(t *testing.T) {
	doc := parse(t, `<body><div><p>first</p><p>second</p></div></body>`)
	target := findNth(doc, "p", 2)
	require.NotNil(t, target)

	loc := BuildLocator(target)
	loc.Selector = "#no-such-id > p:nth-of-type(9)"

	assert.Same(t, target, Resolve(doc, loc))
}

func TestResolve_ZeroLocator(t *testing.T) {
	doc := parse(t, `<body><p>text</p></body>`)

	assert.Nil(t, Resolve(doc, domain.Locator{}))
}

func TestResolve_NoMatch(t *testing.T) {
	doc := parse(t, `<body><p>text</p></body>`)

	loc := domain.Locator{Selector: "#missing", Path: []int{5, 5, 5}}
	assert.Nil(t, Resolve(doc, loc))
}
