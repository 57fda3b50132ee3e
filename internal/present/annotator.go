package present

import (
	"strconv"

	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// Markup written into the document.
const (
	// TypeAttr carries the classification on the labeled element.
	TypeAttr = "data-advisor-type"

	// ZoneAttr carries the zone type on a promoted container.
	ZoneAttr = "data-advisor-zone"

	// TargetClass is added to the element that holds the badge.
	TargetClass = "advisor-target"

	// BadgeClass is the class of every badge.
	BadgeClass = "advisor-badge"

	// FocusClass is set on <body> while focus mode is on.
	FocusClass = "news-focus-mode"
)

// voidTags cannot have children, so their badge goes before them.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

type mark struct {
	target     *html.Node
	anchor     *html.Node
	badge      *html.Node
	addedClass bool
}

// Annotator writes badges and markers into one document and removes them
// again on Revert. It is not safe for concurrent use.
type Annotator struct {
	doc    *html.Node
	nextID int
	marks  map[int]*mark
	order  []int
	byNode map[*html.Node]int
	zones  []*html.Node
	focus  *html.Node
}

// NewAnnotator creates an Annotator for doc.
func NewAnnotator(doc *html.Node) *Annotator {
	return &Annotator{
		doc:    doc,
		marks:  make(map[int]*mark),
		byNode: make(map[*html.Node]int),
	}
}

// Annotate labels target with t and inserts a badge into anchor. It
// returns the badge id.
func (a *Annotator) Annotate(target, anchor *html.Node, t model.Type) int {
	a.nextID++
	id := a.nextID
	if anchor == nil {
		anchor = target
	}

	m := &mark{target: target, anchor: anchor}
	dom.SetAttr(target, TypeAttr, t.String())
	if !dom.HasClass(anchor, TargetClass) {
		dom.AddClass(anchor, TargetClass)
		m.addedClass = true
	}

	badge := dom.NewElement("span",
		html.Attribute{Key: "class", Val: BadgeClass + " " + t.String()},
		html.Attribute{Key: dom.BadgeAttr, Val: strconv.Itoa(id)},
	)
	badge.AppendChild(&html.Node{Type: html.TextNode, Data: t.Label()})
	switch {
	case dom.Opaque(anchor) || voidTags[anchor.Data]:
		if anchor.Parent != nil {
			anchor.Parent.InsertBefore(badge, anchor)
			m.badge = badge
		}
	default:
		anchor.InsertBefore(badge, anchor.FirstChild)
		m.badge = badge
	}

	a.marks[id] = m
	a.order = append(a.order, id)
	a.byNode[target] = id
	a.byNode[anchor] = id
	if m.badge != nil {
		a.byNode[m.badge] = id
	}
	return id
}

// MarkZone marks container as a zone of type t.
func (a *Annotator) MarkZone(container *html.Node, t model.Type) {
	dom.SetAttr(container, ZoneAttr, t.String())
	a.zones = append(a.zones, container)
}

// Lookup returns the badge id of the nearest labeled element, anchor or
// badge at or above n.
func (a *Annotator) Lookup(n *html.Node) (int, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if id, ok := a.byNode[cur]; ok {
			return id, true
		}
	}
	return 0, false
}

// Badge returns the badge element of an annotation, or nil when it could
// not be inserted.
func (a *Annotator) Badge(id int) *html.Node {
	if m, ok := a.marks[id]; ok {
		return m.badge
	}
	return nil
}

// Len returns the number of live annotations.
func (a *Annotator) Len() int {
	return len(a.marks)
}

// SetFocus turns focus mode on or off.
func (a *Annotator) SetFocus(on bool) {
	if on {
		if a.focus != nil {
			return
		}
		body := dom.Body(a.doc)
		if body == nil || dom.HasClass(body, FocusClass) {
			return
		}
		dom.AddClass(body, FocusClass)
		a.focus = body
		return
	}
	if a.focus != nil {
		dom.RemoveClass(a.focus, FocusClass)
		a.focus = nil
	}
}

// Focused reports whether focus mode is on.
func (a *Annotator) Focused() bool {
	return a.focus != nil
}

// Revert removes every badge, marker and class the Annotator added.
// Badge ids keep increasing across reverts.
func (a *Annotator) Revert() {
	for i := len(a.order) - 1; i >= 0; i-- {
		m := a.marks[a.order[i]]
		if m.badge != nil && m.badge.Parent != nil {
			dom.Detach(m.badge)
		}
		dom.RemoveAttr(m.target, TypeAttr)
		if m.addedClass {
			dom.RemoveClass(m.anchor, TargetClass)
		}
	}
	for _, z := range a.zones {
		dom.RemoveAttr(z, ZoneAttr)
	}
	a.SetFocus(false)

	a.marks = make(map[int]*mark)
	a.order = nil
	a.byNode = make(map[*html.Node]int)
	a.zones = nil
}
