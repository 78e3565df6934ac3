package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// BuildLocator computes a stable structural locator for a node: a
// CSS-selector-style path using id attributes when present, otherwise tag
// name plus an nth-of-type index, and a child-index fallback path usable when
// the selector is ambiguous.
func BuildLocator(n *html.Node) domain.Locator {
	if n == nil || n.Type != html.ElementNode {
		return domain.Locator{}
	}

	var segments []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := Attr(cur, "id"); id != "" {
			segments = append([]string{"#" + id}, segments...)
			break
		}
		segments = append([]string{fmt.Sprintf("%s:nth-of-type(%d)", cur.Data, nthOfType(cur))}, segments...)
	}

	return domain.Locator{
		Selector: strings.Join(segments, " > "),
		Path:     indexPath(n),
	}
}

// Resolve re-finds the node a locator points to. The selector is tried first;
// on failure or no match the structural path is tried. Returns nil when both
// fail - callers treat that as a normal outcome.
func Resolve(doc *html.Node, loc domain.Locator) *html.Node {
	if doc == nil || loc.IsZero() {
		return nil
	}
	if n := resolveSelector(doc, loc.Selector); n != nil {
		return n
	}
	return resolvePath(doc, loc.Path)
}

// nthOfType returns the 1-based index of n among same-tag element siblings.
func nthOfType(n *html.Node) int {
	idx := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			idx++
		}
	}
	return idx
}

// indexPath records element child indices from the document root down to n.
func indexPath(n *html.Node) []int {
	var path []int
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		idx := 0
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode {
				idx++
			}
		}
		path = append([]int{idx}, path...)
	}
	return path
}

func resolveSelector(doc *html.Node, selector string) *html.Node {
	if selector == "" {
		return nil
	}
	segments := strings.Split(selector, " > ")

	var cur *html.Node
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if i == 0 && strings.HasPrefix(seg, "#") {
			cur = FindByID(doc, strings.TrimPrefix(seg, "#"))
			if cur == nil {
				return nil
			}
			continue
		}

		tag, idx, ok := parseSegment(seg)
		if !ok {
			return nil
		}
		parent := cur
		if parent == nil {
			// First segment without an id anchor matches from the root.
			cur = nthElementOfType(doc, tag, idx, true)
		} else {
			cur = nthElementOfType(parent, tag, idx, false)
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// parseSegment splits "tag:nth-of-type(n)" into its parts. A bare tag name
// means the first element of that type.
func parseSegment(seg string) (tag string, idx int, ok bool) {
	tag, rest, found := strings.Cut(seg, ":nth-of-type(")
	if tag == "" {
		return "", 0, false
	}
	if !found {
		return tag, 1, true
	}
	num := strings.TrimSuffix(rest, ")")
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return "", 0, false
	}
	return tag, n, true
}

// nthElementOfType finds the idx-th element with the given tag. When deep is
// true the whole subtree is searched (used to anchor the first segment);
// otherwise only direct children are considered.
func nthElementOfType(parent *html.Node, tag string, idx int, deep bool) *html.Node {
	count := 0
	if deep {
		var found *html.Node
		Walk(parent, func(n *html.Node) bool {
			if found != nil {
				return false
			}
			if IsElement(n, tag) {
				count++
				if count == idx {
					found = n
					return false
				}
			}
			return true
		})
		return found
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tag) {
			count++
			if count == idx {
				return c
			}
		}
	}
	return nil
}

func resolvePath(doc *html.Node, path []int) *html.Node {
	if len(path) == 0 {
		return nil
	}
	// The path is rooted at the document's element children (<html> is
	// index 0 of the document node).
	cur := doc
	for _, idx := range path {
		next := elementChildAt(cur, idx)
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func elementChildAt(parent *html.Node, idx int) *html.Node {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if count == idx {
				return c
			}
			count++
		}
	}
	return nil
}
