package candidate

import (
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// Candidate is an element eligible for classification.
type Candidate interface {
	// Node returns the element, used as the candidate identity.
	Node() *html.Node

	// Kind returns the capability tag assigned at detection.
	Kind() model.Kind

	sealed()
}

// Link is a hyperlink candidate.
type Link struct {
	node *html.Node
}

// Node returns the <a> element.
func (l Link) Node() *html.Node { return l.node }

// Kind returns model.KindLink.
func (l Link) Kind() model.Kind { return model.KindLink }

// Href returns the raw destination attribute.
func (l Link) Href() string { return dom.Attr(l.node, "href") }

// Text returns the visible text of the link.
func (l Link) Text() string { return dom.VisibleText(l.node) }

func (Link) sealed() {}

// Widget is a recommendation-widget container whose content is in the
// light tree.
type Widget struct {
	node *html.Node
}

// Node returns the container element.
func (w Widget) Node() *html.Node { return w.node }

// Kind returns model.KindWidget.
func (w Widget) Kind() model.Kind { return model.KindWidget }

// EmbeddedFrame returns the container itself when it is a frame, or the
// first frame inside it, or nil.
func (w Widget) EmbeddedFrame() *html.Node {
	if dom.IsElement(w.node, "iframe") {
		return w.node
	}
	return dom.Find(w.node, func(n *html.Node) bool {
		return n != w.node && n.Data == "iframe"
	})
}

func (Widget) sealed() {}

// Opaque is a black-box candidate: an embedded frame or a widget whose
// content is shadow-encapsulated. Only the host element's own attributes
// are reachable.
type Opaque struct {
	node      *html.Node
	kind      model.Kind
	container *html.Node
}

// Node returns the host element for identity and annotation.
func (o Opaque) Node() *html.Node { return o.node }

// Kind returns model.KindFrame or model.KindShadowHost.
func (o Opaque) Kind() model.Kind { return o.kind }

// Attr returns an attribute of the host element.
func (o Opaque) Attr(key string) string { return dom.Attr(o.node, key) }

// HasAttr reports whether the host element carries an attribute.
func (o Opaque) HasAttr(key string) bool { return dom.HasAttr(o.node, key) }

// Container returns the recommendation-widget container a frame was found
// in, or nil.
func (o Opaque) Container() *html.Node { return o.container }

// Tag returns the host element's tag name.
func (o Opaque) Tag() string { return o.node.Data }

func (Opaque) sealed() {}

// NewLink wraps an <a> element.
func NewLink(n *html.Node) Link { return Link{node: n} }

// NewWidget wraps a traversable widget container.
func NewWidget(n *html.Node) Widget { return Widget{node: n} }

// NewFrame wraps an <iframe> element as an opaque candidate.
func NewFrame(n *html.Node) Opaque { return Opaque{node: n, kind: model.KindFrame} }

// NewWidgetFrame wraps an <iframe> found inside a widget container. It is
// judged as part of the container.
func NewWidgetFrame(n, container *html.Node) Opaque {
	return Opaque{node: n, kind: model.KindFrame, container: container}
}

// NewShadowHost wraps a shadow-encapsulated widget as an opaque candidate.
func NewShadowHost(n *html.Node) Opaque { return Opaque{node: n, kind: model.KindShadowHost} }

// FromKind rebuilds the candidate of a registered element from its tag.
// It returns nil for an unknown kind.
func FromKind(n *html.Node, kind model.Kind) Candidate {
	switch kind {
	case model.KindLink:
		return NewLink(n)
	case model.KindWidget:
		return NewWidget(n)
	case model.KindFrame:
		return NewFrame(n)
	case model.KindShadowHost:
		return NewShadowHost(n)
	default:
		return nil
	}
}
