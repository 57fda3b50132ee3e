// Package anchor picks the element inside a classified subtree that
// carries the badge.
package anchor

import (
	"strings"

	"github.com/nao1215/newsadvisor/internal/dom"
	"golang.org/x/net/html"
)

// Scoring weights.
const (
	MinTextLength = 3
	HeadingBonus  = 50
	TitleBonus    = 20
)

// Score rates n as an injection point. It returns false when n has too
// little visible text to qualify.
func Score(n *html.Node) (int, bool) {
	length := dom.TextLen(n)
	if length < MinTextLength {
		return 0, false
	}
	score := length
	if dom.IsHeading(n) {
		score += HeadingBonus
	}
	if hasTitleClass(n) {
		score += TitleBonus
	}
	return score, true
}

// Select returns the best-scoring descendant of root. Equal scores go to
// the element found later in document order. When nothing qualifies, root
// itself is returned.
func Select(root *html.Node) *html.Node {
	best := root
	bestScore := -1
	for _, n := range dom.Elements(root) {
		if dom.HasAttr(n, dom.BadgeAttr) {
			continue
		}
		score, ok := Score(n)
		if !ok {
			continue
		}
		if score >= bestScore {
			best, bestScore = n, score
		}
	}
	return best
}

func hasTitleClass(n *html.Node) bool {
	class := strings.ToLower(dom.Attr(n, "class"))
	return strings.Contains(class, "title") || strings.Contains(class, "headline")
}
