package scheduler

import (
	"strconv"
	"strings"

	"github.com/nao1215/newsadvisor/internal/dom"
	"golang.org/x/net/html"
)

// OffsetAttr carries the rendered top offset, in pixels, of an element.
const OffsetAttr = "data-advisor-top"

// BottomAttr carries the rendered bottom offset, in pixels, of an element.
const BottomAttr = "data-advisor-bottom"

// DefaultRowHeight is the FlowLayout height of one element.
const DefaultRowHeight = 40

// Extent is the vertical range an element covers. Bottom is never above
// Top.
type Extent struct {
	Top    int
	Bottom int
}

// Layout maps elements to the vertical range they cover.
type Layout interface {
	Extent(n *html.Node) (Extent, bool)
}

// Invalidator is implemented by layouts that cache offsets.
type Invalidator interface {
	Invalidate()
}

// FlowLayout places each element of the document one row below the
// previous element in document order. An element spans its own row and
// the rows of its descendants. Advisor badges take no space.
type FlowLayout struct {
	root      *html.Node
	rowHeight int
	index     map[*html.Node]int
	last      map[*html.Node]int
}

// NewFlowLayout creates a FlowLayout over the document rooted at root.
// A non-positive rowHeight selects DefaultRowHeight.
func NewFlowLayout(root *html.Node, rowHeight int) *FlowLayout {
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	return &FlowLayout{root: root, rowHeight: rowHeight}
}

// Offset returns the row offset of n, or false when n is not in the
// document.
func (f *FlowLayout) Offset(n *html.Node) (int, bool) {
	e, ok := f.Extent(n)
	return e.Top, ok
}

// Extent implements Layout.
func (f *FlowLayout) Extent(n *html.Node) (Extent, bool) {
	if f.index == nil {
		f.build()
	}
	i, ok := f.index[n]
	if !ok {
		return Extent{}, false
	}
	return Extent{Top: i * f.rowHeight, Bottom: (f.last[n]+1)*f.rowHeight - 1}, true
}

// Invalidate drops the cached order. It must be called after the tree
// changes.
func (f *FlowLayout) Invalidate() {
	f.index = nil
	f.last = nil
}

func (f *FlowLayout) build() {
	f.index = make(map[*html.Node]int)
	f.last = make(map[*html.Node]int)
	next := 0
	var place func(n *html.Node)
	place = func(n *html.Node) {
		if dom.HasAttr(n, dom.BadgeAttr) {
			return
		}
		if n.Type == html.ElementNode {
			f.index[n] = next
			next++
		}
		if !dom.Opaque(n) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				place(c)
			}
		}
		if n.Type == html.ElementNode {
			f.last[n] = next - 1
		}
	}
	if f.root != nil {
		place(f.root)
	}
}

// AttrLayout reads OffsetAttr from the element or its nearest ancestor
// carrying it, and defers to Fallback otherwise. The bottom of an element
// that carries OffsetAttr itself is the largest of its BottomAttr and the
// offsets recorded on its descendants.
type AttrLayout struct {
	Fallback Layout
}

// Offset returns the top of the extent of n.
func (a AttrLayout) Offset(n *html.Node) (int, bool) {
	e, ok := a.Extent(n)
	return e.Top, ok
}

// Extent implements Layout.
func (a AttrLayout) Extent(n *html.Node) (Extent, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if !dom.HasAttr(cur, OffsetAttr) {
			continue
		}
		top, ok := pixels(cur, OffsetAttr)
		if !ok {
			break
		}
		e := Extent{Top: top, Bottom: top}
		if cur == n {
			e.Bottom = recordedBottom(n, top)
		}
		return e, true
	}
	if a.Fallback == nil {
		return Extent{}, false
	}
	return a.Fallback.Extent(n)
}

// Invalidate forwards to the fallback layout.
func (a AttrLayout) Invalidate() {
	if inv, ok := a.Fallback.(Invalidator); ok {
		inv.Invalidate()
	}
}

func recordedBottom(n *html.Node, top int) int {
	bottom := top
	if b, ok := pixels(n, BottomAttr); ok {
		bottom = max(bottom, b)
	}
	for _, d := range dom.Elements(n) {
		if t, ok := pixels(d, OffsetAttr); ok {
			bottom = max(bottom, t)
		}
	}
	return bottom
}

func pixels(n *html.Node, key string) (int, bool) {
	if !dom.HasAttr(n, key) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(dom.Attr(n, key)))
	if err != nil {
		return 0, false
	}
	return v, true
}
