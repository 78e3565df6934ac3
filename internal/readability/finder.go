// Package readability locates the main-content subtree of a page through an
// ordered fallback chain: semantic tags, common content-container ids and
// classes, a text-vs-link-density score, and finally the whole body.
package readability

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
	"github.com/pagelens/pagelens-cli/internal/dom"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// Ensure Finder implements the interface.
var _ driven.MainContentFinder = (*Finder)(nil)

// minCandidateChars is the least text a candidate must hold to beat the
// whole-body fallback.
const minCandidateChars = 250

// containerHints are id/class fragments that commonly mark the main column.
var containerHints = []string{"content", "main", "article", "post", "entry", "body"}

// chromeHints mark navigation and page chrome that should never win.
var chromeHints = []string{"nav", "sidebar", "footer", "header", "menu", "comment", "banner", "ad"}

// Finder implements the main-content fallback chain.
type Finder struct{}

// New creates a Finder.
func New() *Finder {
	return &Finder{}
}

// FindMainContent returns the best main-content root, or nil when nothing
// beats the whole document. The segmenter treats nil as "use the body".
func (f *Finder) FindMainContent(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}
	body := dom.Body(doc)

	if n := firstSemantic(body); n != nil {
		logger.Debug("Main content via semantic tag <%s>", n.Data)
		return n
	}
	if n := byContainerHint(body); n != nil {
		logger.Debug("Main content via container hint")
		return n
	}
	if n := byDensity(body); n != nil {
		logger.Debug("Main content via density scoring")
		return n
	}
	return nil
}

// firstSemantic finds <main>, [role=main], or a lone <article>.
func firstSemantic(body *html.Node) *html.Node {
	var main, article *html.Node
	articles := 0
	dom.Walk(body, func(n *html.Node) bool {
		if main != nil {
			return false
		}
		if dom.IsElement(n, "main") || strings.EqualFold(dom.Attr(n, "role"), "main") {
			main = n
			return false
		}
		if dom.IsElement(n, "article") {
			articles++
			article = n
			return false
		}
		return true
	})
	if main != nil {
		return main
	}
	// Multiple articles mean a listing page; a single one is the content.
	if articles == 1 && substantial(article) {
		return article
	}
	return nil
}

// byContainerHint matches common content-container ids and classes while
// rejecting page chrome.
func byContainerHint(body *html.Node) *html.Node {
	var best *html.Node
	bestLen := 0
	dom.Walk(body, func(n *html.Node) bool {
		if !dom.IsElement(n, "div", "section") {
			return true
		}
		marker := strings.ToLower(dom.Attr(n, "id") + " " + dom.Attr(n, "class"))
		if marker == " " || hintMatch(marker, chromeHints) || !hintMatch(marker, containerHints) {
			return true
		}
		if l := utf8.RuneCountInString(dom.Text(n)); l > bestLen && l >= minCandidateChars {
			best = n
			bestLen = l
		}
		return true
	})
	return best
}

// byDensity scores block containers by text length discounted by link text,
// a rough boilerplate signal.
func byDensity(body *html.Node) *html.Node {
	var best *html.Node
	bestScore := 0.0
	dom.Walk(body, func(n *html.Node) bool {
		if !dom.IsElement(n, "div", "section", "td") {
			return true
		}
		text := dom.Text(n)
		length := float64(utf8.RuneCountInString(text))
		if length < minCandidateChars {
			return true
		}
		linkLen := 0.0
		dom.Walk(n, func(a *html.Node) bool {
			if dom.IsElement(a, "a") {
				linkLen += float64(utf8.RuneCountInString(dom.Text(a)))
				return false
			}
			return true
		})
		score := length - 2*linkLen
		if score > bestScore {
			best = n
			bestScore = score
		}
		return true
	})
	return best
}

func hintMatch(marker string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(marker, h) {
			return true
		}
	}
	return false
}

func substantial(n *html.Node) bool {
	return utf8.RuneCountInString(dom.Text(n)) >= minCandidateChars
}
