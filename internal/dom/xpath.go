package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// XPath returns the absolute element path of n, for example
// "/html/body/div[2]/a". A positional index is only written for an element
// that has an earlier sibling with the same tag, matching the path a
// browser-side observer computes. Badges are not counted, so paths stay
// valid in a document the advisor has not annotated.
func XPath(n *html.Node) string {
	parts := make([]string, 0)
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		idx := 0
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == cur.Data && !HasAttr(s, BadgeAttr) {
				idx++
			}
		}
		if idx > 0 {
			parts = append(parts, cur.Data+"["+strconv.Itoa(idx+1)+"]")
		} else {
			parts = append(parts, cur.Data)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// Resolve follows an absolute path produced by XPath from doc and returns
// the element it names, or nil. A step without an index selects the first
// element with that tag.
func Resolve(doc *html.Node, path string) *html.Node {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		return nil
	}
	cur := doc
	for _, step := range strings.Split(path[1:], "/") {
		if step == "" {
			continue
		}
		tag, pos := parseStep(step)
		if pos < 1 {
			return nil
		}
		var next *html.Node
		seen := 0
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != tag || HasAttr(c, BadgeAttr) {
				continue
			}
			seen++
			if seen == pos {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	if cur == doc {
		return nil
	}
	return cur
}

// parseStep splits "div[2]" into ("div", 2) and "div" into ("div", 1).
func parseStep(step string) (string, int) {
	open := strings.IndexByte(step, '[')
	if open < 0 {
		return strings.ToLower(step), 1
	}
	tag := strings.ToLower(step[:open])
	n, err := strconv.Atoi(strings.TrimSuffix(step[open+1:], "]"))
	if err != nil {
		return tag, 0
	}
	return tag, n
}
