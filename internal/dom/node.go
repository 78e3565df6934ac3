// Package dom provides helpers for walking parsed HTML documents and the
// locator utility that points chunks back to their originating nodes.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Tags whose subtrees never contribute readable text.
var nonContentTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
}

// IsElement reports whether n is an element node, optionally matching one of
// the given tag names.
func IsElement(n *html.Node, names ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if n.Data == name {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute, or "" when absent.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HeadingLevel returns 1-6 for h1..h6 elements and 0 for anything else.
func HeadingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	if len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6' {
		return int(n.Data[1] - '0')
	}
	return 0
}

// hiddenHere reports whether the node itself declares it is not rendered.
// Only inline declarations are visible to a static parse; computed styles are
// out of reach without a layout engine.
func hiddenHere(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if Attr(n, "hidden") != "" || strings.EqualFold(Attr(n, "aria-hidden"), "true") {
		return true
	}
	style := strings.ToLower(Attr(n, "style"))
	if style == "" {
		return false
	}
	style = strings.ReplaceAll(style, " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// Visible reports whether n and all its element ancestors are rendered.
func Visible(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (nonContentTags[p.Data] || hiddenHere(p)) {
			return false
		}
	}
	return true
}

// Text extracts the readable text of a subtree: text nodes joined by single
// spaces, skipping non-content tags and hidden elements.
func Text(n *html.Node) string {
	var parts []string
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && (nonContentTags[node.Data] || hiddenHere(node)) {
			return
		}
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	if n != nil {
		visit(n)
	}
	return CollapseSpace(strings.Join(parts, " "))
}

// CollapseSpace trims and collapses all whitespace runs to single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's subtree.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// Body returns the <body> element of a parsed document, or the document
// itself when none exists (fragments).
func Body(doc *html.Node) *html.Node {
	var body *html.Node
	Walk(doc, func(n *html.Node) bool {
		if body != nil {
			return false
		}
		if IsElement(n, "body") {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return doc
	}
	return body
}

// FindByID returns the first element with the given id attribute.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if IsElement(n) && Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// ContainsHeading reports whether the subtree holds a visible heading.
func ContainsHeading(n *html.Node) bool {
	found := false
	Walk(n, func(node *html.Node) bool {
		if found {
			return false
		}
		if HeadingLevel(node) > 0 && Visible(node) {
			found = true
			return false
		}
		return true
	})
	return found
}
