package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SnippetLimit is the byte limit of markup snippets shown in the panel.
const SnippetLimit = 500

// OuterHTML renders n and its subtree.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// Snippet returns the outer markup of n truncated to SnippetLimit bytes,
// with an ellipsis appended when truncated. Truncation never splits a
// UTF-8 sequence.
func Snippet(n *html.Node) string {
	s := OuterHTML(n)
	if len(s) <= SnippetLimit {
		return s
	}
	cut := SnippetLimit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// NewElement creates a detached element with consistent atom data.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// ParseFragment parses markup in the context of parent and returns the
// resulting top-level nodes, detached and ready to be appended.
func ParseFragment(parent *html.Node, markup string) ([]*html.Node, error) {
	ctx := parent
	if ctx == nil || ctx.Type != html.ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}
