package classify

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// Outcome is the result of classifying one candidate together with where
// the result applies.
type Outcome struct {
	// Result is the classification and its evidence.
	Result model.Result

	// Target is the element that carries the annotation. It is the
	// candidate itself, or the zone container for opaque outcomes that
	// escalate.
	Target *html.Node

	// Zone is the container to promote, or nil.
	Zone *html.Node

	// URL is the parsed destination, or nil when the candidate has none.
	URL *model.ParsedURL

	// Rule names the rule that decided the outcome.
	Rule string

	// Skipped is true for traversable widget wrappers, which are marked
	// processed without a result.
	Skipped bool
}

// Classifier evaluates candidates for one page.
type Classifier struct {
	page      Location
	adDomains []string
	container cascadia.Selector
	logger    *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithLogger sets the logger used for rule traces.
func WithLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAdDomains appends ad-network domains to AdDomains.
func WithAdDomains(domains ...string) ClassifierOption {
	return func(c *Classifier) {
		c.adDomains = append(c.adDomains, domains...)
	}
}

// New creates a Classifier bound to the page location.
func New(page Location, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		page:      page,
		adDomains: append([]string{}, AdDomains...),
		container: cascadia.MustCompile(containerSelector),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Page returns the location the classifier is bound to.
func (c *Classifier) Page() Location {
	return c.page
}

// Classify dispatches on the candidate variant.
func (c *Classifier) Classify(cand candidate.Candidate) Outcome {
	var out Outcome
	switch v := cand.(type) {
	case candidate.Link:
		container, text := c.Container(v.Node())
		out = c.classifyLink(v, container, text)
	case candidate.Widget:
		out = c.classifyWidget(v)
	case candidate.Opaque:
		switch {
		case v.Kind() == model.KindShadowHost:
			out = c.classifyShadowHost(v)
		case v.Container() != nil:
			out = c.classifyWidgetFrame(v)
		default:
			out = c.classifyFrame(v)
		}
	default:
		panic(fmt.Sprintf("classify: unknown candidate %T", cand))
	}

	c.logger.Debug("candidate classified",
		slog.String("kind", cand.Kind().String()),
		slog.String("element", dom.Describe(cand.Node())),
		slog.String("type", out.Result.Type().String()),
		slog.String("rule", out.Rule),
		slog.Bool("skipped", out.Skipped),
	)
	return out
}

// ClassifyLink applies the link rule chain with an explicit container.
// A nil container contributes no text.
func (c *Classifier) ClassifyLink(link candidate.Link, container *html.Node) model.Result {
	text := ""
	if container != nil {
		text = dom.VisibleText(container)
	}
	return c.classifyLink(link, container, text).Result
}

// Container returns the nearest block ancestor of n and its visible text.
// When there is none, the direct parent is returned with empty text.
func (c *Classifier) Container(n *html.Node) (*html.Node, string) {
	if block := dom.ClosestAncestor(n, c.container.Match); block != nil {
		return block, dom.VisibleText(block)
	}
	return n.Parent, ""
}

func (c *Classifier) classifyLink(link candidate.Link, container *html.Node, containerText string) Outcome {
	dest := newDestination(c.page, link.Href())
	text := link.Text()

	typ, evidence, rule := evaluateLink(linkInput{
		dest:          dest,
		text:          text,
		containerText: containerText,
		pageHost:      c.page.Hostname(),
		adDomains:     c.adDomains,
	})

	details := []string{
		evidence,
		"Kind: " + model.KindLink.String(),
		"Destination: " + dest.String(),
	}
	if dest.malformed() {
		details = append(details, "Destination could not be parsed; matched as text")
	}
	details = append(details, "Container: "+describeContainer(container, containerText))
	details = append(details, fmt.Sprintf("Visible text: %q", truncate(text, 80)))
	for _, p := range dest.flagged() {
		details = append(details, fmt.Sprintf("Tracking parameter: %s=%s", p.Key, p.Value))
	}

	return Outcome{
		Result: model.NewResult(typ, []string{evidence}, details),
		Target: link.Node(),
		URL:    dest.parsedURL(),
		Rule:   rule,
	}
}

func describeContainer(container *html.Node, text string) string {
	if container == nil {
		return "none"
	}
	if text == "" {
		return dom.Describe(container) + " (no block container, text ignored)"
	}
	return dom.Describe(container)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "…"
}
