package classify

import (
	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// classifyWidget handles a traversable recommendation-widget container.
// A container holding a frame is Sponsored as a whole and becomes a zone.
// Any other container is a wrapper: it is skipped and its children stay
// eligible on their own.
func (c *Classifier) classifyWidget(w candidate.Widget) Outcome {
	frame := w.EmbeddedFrame()
	if frame == nil {
		return Outcome{
			Target:  w.Node(),
			Rule:    "widget-wrapper",
			Skipped: true,
		}
	}

	return c.widgetFrame(w.Node(), frame, w.Kind())
}

// classifyWidgetFrame handles a frame that reached the session on its own
// inside a widget container, typically inserted after the container was
// skipped as a wrapper. The frame is never traversed and the container is
// labeled and zoned.
func (c *Classifier) classifyWidgetFrame(frame candidate.Opaque) Outcome {
	return c.widgetFrame(frame.Container(), frame.Node(), frame.Kind())
}

func (c *Classifier) widgetFrame(container, frame *html.Node, kind model.Kind) Outcome {
	evidence := "Recommendation widget (embedded frame)"
	details := []string{
		evidence,
		"Kind: " + kind.String(),
		"Container: " + dom.Describe(container),
		"Frame: " + dom.Describe(frame),
	}
	out := Outcome{
		Result: model.NewResult(model.TypeSponsored, []string{evidence}, details),
		Target: container,
		Zone:   container,
		Rule:   "widget-frame",
	}
	if src := dom.Attr(frame, "src"); src != "" {
		out.URL = newDestination(c.page, src).parsedURL()
	}
	return out
}

// classifyShadowHost handles a widget whose content is encapsulated.
func (c *Classifier) classifyShadowHost(host candidate.Opaque) Outcome {
	evidence := "Recommendation widget (shadow widget)"
	details := []string{
		evidence,
		"Kind: " + host.Kind().String(),
		"Host: " + dom.Describe(host.Node()),
		"Content is encapsulated and was not inspected",
	}
	return Outcome{
		Result: model.NewResult(model.TypeSponsored, []string{evidence}, details),
		Target: host.Node(),
		Zone:   host.Node(),
		Rule:   "shadow-widget",
	}
}
