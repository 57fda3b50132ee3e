package dom

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// BadgeAttr marks badge elements inserted by the advisor. Their labels are
// excluded from visible text so that one annotation never influences the
// classification of a neighbour.
const BadgeAttr = "data-advisor-badge"

// hiddenTags never contribute visible text.
var hiddenTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"head":     true,
}

// blockTags break the line they appear in. Inline elements join their
// text to the neighbouring text without a separator.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hgroup": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "summary": true, "table": true,
	"tr": true, "td": true, "th": true, "ul": true, "br": true,
	"caption": true, "option": true,
}

// VisibleText approximates the rendered text of n: text nodes outside
// hidden elements and advisor badges, whitespace collapsed and trimmed.
// Block elements and <br> separate words; inline elements do not.
func VisibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
			return
		case html.ElementNode:
			if hiddenTags[cur.Data] || HasAttr(cur, BadgeAttr) {
				return
			}
			if blockTags[cur.Data] {
				b.WriteByte(' ')
				defer b.WriteByte(' ')
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TextLen returns the rune length of the visible text of n.
func TextLen(n *html.Node) int {
	return utf8.RuneCountInString(VisibleText(n))
}
