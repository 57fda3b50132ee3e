package dom

import (
	"golang.org/x/net/html"
)

// opaqueTags are elements whose children are never visited. A template
// holds declarative shadow-root content; iframe children are fallback text
// that the frame's own document replaces.
var opaqueTags = map[string]bool{
	"template": true,
	"iframe":   true,
}

// Opaque reports whether traversal must stop at n.
func Opaque(n *html.Node) bool {
	return n.Type == html.ElementNode && opaqueTags[n.Data]
}

// Walk visits n and its descendants in document order. When fn returns
// false the children of the visited node are skipped. Opaque elements are
// visited but never entered.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) || Opaque(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// Elements returns the element descendants of n in document order,
// excluding n itself.
func Elements(n *html.Node) []*html.Node {
	out := make([]*html.Node, 0)
	Walk(n, func(c *html.Node) bool {
		if c != n && c.Type == html.ElementNode {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Closest returns the nearest node, starting at n itself and walking up,
// for which match returns true.
func Closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// ClosestAncestor is Closest but starts at the parent of n.
func ClosestAncestor(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	return Closest(n.Parent, match)
}

// Root returns the top-most ancestor of n.
func Root(n *html.Node) *html.Node {
	cur := n
	for cur != nil && cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Attached reports whether n is still part of the document rooted at doc.
func Attached(doc, n *html.Node) bool {
	return n != nil && Root(n) == doc
}

// Contains reports whether n is ancestor or equal to other.
func Contains(n, other *html.Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Find returns the first element in document order, starting at n, for
// which match returns true.
func Find(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// Body returns the <body> element of doc, or nil.
func Body(doc *html.Node) *html.Node {
	return Find(doc, func(n *html.Node) bool { return n.Data == "body" })
}

// Detach removes n from its parent.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// HasShadowRoot reports whether n hosts encapsulated content: a
// declarative shadow root template child, or the marker attribute a live
// host sets on elements whose shadow root it cannot serialize.
func HasShadowRoot(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	if HasAttr(n, ShadowMarkerAttr) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, "template") &&
			(HasAttr(c, "shadowrootmode") || HasAttr(c, "shadowroot")) {
			return true
		}
	}
	return false
}

// ShadowMarkerAttr marks an element whose shadow root was not serialized.
const ShadowMarkerAttr = "data-advisor-shadow"
