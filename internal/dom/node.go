package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of the attribute key, or an empty string.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries the attribute key.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets the attribute key to val, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the attribute key if present.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// IsElement reports whether n is an element and, when tags are given,
// whether its tag name is one of them.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// IsHeading reports whether n is one of h1 to h6.
func IsHeading(n *html.Node) bool {
	return IsElement(n, "h1", "h2", "h3", "h4", "h5", "h6")
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether n has the class c.
func HasClass(n *html.Node, c string) bool {
	for _, cls := range Classes(n) {
		if cls == c {
			return true
		}
	}
	return false
}

// AddClass appends c to the class list unless it is already present.
func AddClass(n *html.Node, c string) {
	if HasClass(n, c) {
		return
	}
	classes := append(Classes(n), c)
	SetAttr(n, "class", strings.Join(classes, " "))
}

// RemoveClass drops c from the class list. The attribute is removed when
// the list becomes empty.
func RemoveClass(n *html.Node, c string) {
	if !HasAttr(n, "class") {
		return
	}
	kept := make([]string, 0)
	for _, cls := range Classes(n) {
		if cls != c {
			kept = append(kept, cls)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Describe renders a short tag#id.class label for evidence strings.
func Describe(n *html.Node) string {
	if n == nil {
		return "(none)"
	}
	if n.Type != html.ElementNode {
		return "#document"
	}
	var b strings.Builder
	b.WriteString(n.Data)
	if id := Attr(n, "id"); id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	for _, c := range Classes(n) {
		b.WriteString(".")
		b.WriteString(c)
	}
	return b.String()
}
