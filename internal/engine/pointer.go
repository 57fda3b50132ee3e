package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/newsadvisor/internal/anchor"
	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/present"
	"golang.org/x/net/html"
)

// PointerKind is the kind of pointer interaction.
type PointerKind int

const (
	// PointerHover is the pointer entering an element.
	PointerHover PointerKind = iota

	// PointerClick is a click on an element.
	PointerClick
)

// String returns the kind name.
func (k PointerKind) String() string {
	if k == PointerClick {
		return "click"
	}
	return "hover"
}

// ParsePointerKind converts "hover" or "click".
func ParsePointerKind(s string) (PointerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hover", "":
		return PointerHover, nil
	case "click":
		return PointerClick, nil
	default:
		return PointerHover, fmt.Errorf("unknown pointer kind %q", s)
	}
}

// PointerEvent is a hover or click on the page.
type PointerEvent struct {
	Kind PointerKind

	// Target is the element under the pointer. When nil, XPath is
	// resolved against the document.
	Target *html.Node
	XPath  string

	// Pos is the pointer position passed to the tooltip.
	Pos model.Point

	// Modifier requests a diagnosis instead of the normal hooks.
	Modifier bool
}

// Diagnosis is the out-of-band explanation of how an element would be
// classified.
type Diagnosis struct {
	// Element is the XPath of the classifiable element that was found.
	Element string

	Kind     model.Kind
	Decision candidate.Decision
	Result   model.Result
	Rule     string
	Skipped  bool

	// Anchor is the XPath of the element that would carry the badge.
	Anchor string

	// InZone is true when the element lies inside a zone.
	InZone bool

	// Processed is true when the session already handled the element.
	Processed bool
}

// HandlePointer routes a pointer event. With the modifier held it returns
// a diagnosis and reports whether one was produced. Otherwise it calls the
// tooltip or panel of the annotation under the pointer, when the matching
// toggle is on, and reports whether an annotation was found.
func (s *Session) HandlePointer(ev PointerEvent) (Diagnosis, bool) {
	n := ev.Target
	if n == nil && ev.XPath != "" {
		n = dom.Resolve(s.doc, ev.XPath)
	}
	if n == nil {
		return Diagnosis{}, false
	}
	if ev.Modifier {
		return s.Diagnose(n)
	}
	if !s.active {
		return Diagnosis{}, false
	}

	id, ok := s.annotator.Lookup(n)
	if !ok {
		return Diagnosis{}, false
	}
	a, ok := s.live[id]
	if !ok {
		return Diagnosis{}, false
	}

	s.guard(n, func() {
		switch ev.Kind {
		case PointerHover:
			if s.settings.Tooltip && s.tooltip != nil {
				s.tooltip.Show(ev.Pos, present.TooltipLines(a.Result))
			}
		case PointerClick:
			if s.settings.Panel && s.panel != nil {
				s.panel.Open(present.PanelLines(a.Result), a.Snippet, a.URL)
			}
		}
	})
	return Diagnosis{}, true
}

// Diagnose classifies the nearest classifiable element at or above n
// without touching session state or the document, and logs the outcome
// at Info.
func (s *Session) Diagnose(n *html.Node) (d Diagnosis, ok bool) {
	cand, found := s.detector.Nearest(n)
	if !found {
		s.logger.Info("diagnosis: no classifiable element", slog.String("element", dom.Describe(n)))
		return Diagnosis{}, false
	}
	node := cand.Node()
	_, decision := s.detector.Detect(node)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("diagnosis aborted", slog.String("element", dom.Describe(node)), slog.Any("panic", r))
			d, ok = Diagnosis{}, false
		}
	}()

	out := s.classifier.Classify(cand)
	target := out.Target
	if target == nil {
		target = node
	}
	_, _, inZone := s.registry.ZoneOf(node)
	d = Diagnosis{
		Element:   dom.XPath(node),
		Kind:      cand.Kind(),
		Decision:  decision,
		Result:    out.Result,
		Rule:      out.Rule,
		Skipped:   out.Skipped,
		Anchor:    dom.XPath(anchor.Select(target)),
		InZone:    inZone,
		Processed: s.registry.IsProcessed(node),
	}

	s.logger.Info("diagnosis",
		slog.String("element", d.Element),
		slog.String("kind", d.Kind.String()),
		slog.String("decision", d.Decision.String()),
		slog.String("type", d.Result.Type().String()),
		slog.String("rule", d.Rule),
		slog.String("anchor", d.Anchor),
		slog.Any("evidence", d.Result.Details()),
		slog.Bool("in_zone", d.InZone),
		slog.Bool("processed", d.Processed),
	)
	return d, true
}
