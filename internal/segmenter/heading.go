package segmenter

import (
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/dom"
)

// headingNode is one heading in the document's heading forest.
type headingNode struct {
	node     *html.Node
	level    int
	title    string
	parent   *headingNode
	children []*headingNode
}

// path returns the heading titles from the root ancestor down to and
// including this heading.
func (h *headingNode) path() []string {
	var titles []string
	for cur := h; cur != nil; cur = cur.parent {
		titles = append([]string{cur.title}, titles...)
	}
	return titles
}

// buildForest arranges headings into a forest mirroring their nesting.
// Headings are processed in document order with a stack of open headings: an
// incoming heading closes every open heading whose level is >= its own, then
// attaches under the new top of stack. Levels compare numerically, so skipped
// levels (h1 directly followed by h3) still nest.
func buildForest(headings []*html.Node) []*headingNode {
	var roots []*headingNode
	var stack []*headingNode

	for _, node := range headings {
		level := dom.HeadingLevel(node)
		hn := &headingNode{
			node:  node,
			level: level,
			title: dom.Text(node),
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, hn)
		} else {
			top := stack[len(stack)-1]
			hn.parent = top
			top.children = append(top.children, hn)
		}

		stack = append(stack, hn)
	}

	return roots
}

// flatten returns the forest's headings in document order.
func flatten(roots []*headingNode) []*headingNode {
	var all []*headingNode
	var visit func(*headingNode)
	visit = func(h *headingNode) {
		all = append(all, h)
		for _, c := range h.children {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return all
}
