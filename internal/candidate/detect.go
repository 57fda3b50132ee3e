package candidate

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// Decision tells the caller what to do with a detected element.
type Decision int

const (
	// Ignore means the element is not a candidate.
	Ignore Decision = iota

	// Register means the element should be handed to the registry.
	Register

	// Skip means the element is a candidate that must be marked processed
	// without classification.
	Skip
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Register:
		return "register"
	case Skip:
		return "skip"
	default:
		return "ignore"
	}
}

// WidgetSelectors match containers injected by content-recommendation
// networks.
var WidgetSelectors = []string{
	"[id^='taboola']",
	".trc_related_container",
	".trc_rbox_container",
	".OUTBRAIN",
	"[id^='outbrain']",
	".ob-widget",
	"[data-widget-id][data-src*='outbrain']",
	".zergnet-widget",
	"[id^='zergnet-widget']",
	"[id^='rc-widget']",
	".rc-widget",
	"[id^='rcjsload']",
	"[id^='mgid']",
	".mgbox",
	"[class*='nativo']",
	"[id^='ntv-']",
}

// navigationSelectors match regions whose links are site chrome.
var navigationSelectors = []string{
	"nav",
	"footer",
	"[role='navigation']",
	"[role='contentinfo']",
	"[role='menubar']",
}

// nonNavigational are href prefixes that do not lead anywhere classifiable.
var nonNavigational = []string{"#", "javascript:", "mailto:", "tel:", "sms:"}

// Detector recognizes candidates and assigns their capability tag.
type Detector struct {
	widget     cascadia.Selector
	navigation cascadia.Selector
}

// NewDetector compiles the selector tables. extraWidgets are appended to
// WidgetSelectors; an invalid extra selector is reported as an error.
func NewDetector(extraWidgets ...string) (*Detector, error) {
	widgets := append(append([]string{}, WidgetSelectors...), extraWidgets...)
	widget, err := cascadia.Compile(strings.Join(widgets, ", "))
	if err != nil {
		return nil, err
	}
	navigation, err := cascadia.Compile(strings.Join(navigationSelectors, ", "))
	if err != nil {
		return nil, err
	}
	return &Detector{widget: widget, navigation: navigation}, nil
}

// MustDetector is NewDetector without extra selectors. The built-in tables
// always compile.
func MustDetector() *Detector {
	d, err := NewDetector()
	if err != nil {
		panic(err)
	}
	return d
}

// IsWidget reports whether n matches a widget-container selector.
func (d *Detector) IsWidget(n *html.Node) bool {
	return dom.IsElement(n) && d.widget.Match(n)
}

// WidgetContainer returns the nearest widget container strictly above n,
// or nil.
func (d *Detector) WidgetContainer(n *html.Node) *html.Node {
	return dom.ClosestAncestor(n, d.IsWidget)
}

// Rebuild returns the candidate of a registered element from its tag, the
// way Detect built it. It returns nil for an unknown kind.
func (d *Detector) Rebuild(n *html.Node, kind model.Kind) Candidate {
	if kind == model.KindFrame {
		if w := d.WidgetContainer(n); w != nil {
			return NewWidgetFrame(n, w)
		}
	}
	return FromKind(n, kind)
}

// Detect classifies n as a candidate kind. Widget matching runs first so
// that a frame injected as a widget root is handled as a widget.
func (d *Detector) Detect(n *html.Node) (Candidate, Decision) {
	if !dom.IsElement(n) {
		return nil, Ignore
	}

	if d.widget.Match(n) {
		if dom.HasShadowRoot(n) {
			return NewShadowHost(n), Register
		}
		return NewWidget(n), Register
	}

	switch n.Data {
	case "iframe":
		if w := d.WidgetContainer(n); w != nil {
			return NewWidgetFrame(n, w), Register
		}
		return NewFrame(n), Register
	case "a":
		if !dom.HasAttr(n, "href") {
			return nil, Ignore
		}
		link := NewLink(n)
		if d.isChrome(n) || !navigational(link.Href()) {
			return link, Skip
		}
		return link, Register
	}

	return nil, Ignore
}

// Nearest resolves the closest classifiable element at or above n.
func (d *Detector) Nearest(n *html.Node) (Candidate, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		c, decision := d.Detect(cur)
		if decision != Ignore {
			return c, true
		}
	}
	return nil, false
}

// isChrome reports whether a link sits inside navigation or footer chrome.
func (d *Detector) isChrome(n *html.Node) bool {
	return dom.Closest(n, d.navigation.Match) != nil
}

func navigational(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" {
		return false
	}
	for _, p := range nonNavigational {
		if strings.HasPrefix(h, p) {
			return false
		}
	}
	return true
}
