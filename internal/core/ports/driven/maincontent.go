package driven

import "golang.org/x/net/html"

// MainContentFinder locates the main-content subtree of a parsed document.
// The segmenter only requires some root element; a nil result means the
// caller should fall back to the whole document.
type MainContentFinder interface {
	// FindMainContent returns the best main-content root, or nil when no
	// candidate beats the whole document.
	FindMainContent(doc *html.Node) *html.Node
}
