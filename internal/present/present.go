package present

import (
	"log/slog"
	"sync"

	"github.com/nao1215/newsadvisor/internal/model"
)

// Tooltip is the hover hook.
type Tooltip interface {
	Show(pos model.Point, summary []string)
}

// Panel is the click hook.
type Panel interface {
	Open(details []string, snippet string, url *model.ParsedURL)
}

// Listener is notified of every annotation a session produces.
type Listener interface {
	Annotated(a model.Annotation)
}

// TooltipLines returns the hover text for a result: the headline of its
// type followed by the first reason.
func TooltipLines(r model.Result) []string {
	lines := []string{r.Type().Info().Headline}
	if reason := r.Reason(); reason != "" {
		lines = append(lines, "Reason: "+reason)
	}
	return lines
}

// PanelLines returns the panel text for a result: the introduction of its
// type followed by every detail line.
func PanelLines(r model.Result) []string {
	return append([]string{r.Type().Info().Intro}, r.Details()...)
}

// LogTooltip writes hover events to a logger.
type LogTooltip struct {
	Logger *slog.Logger
}

// Show implements Tooltip.
func (t LogTooltip) Show(pos model.Point, summary []string) {
	logger(t.Logger).Info("tooltip",
		slog.Int("x", pos.X),
		slog.Int("y", pos.Y),
		slog.Any("summary", summary),
	)
}

// LogPanel writes click events to a logger.
type LogPanel struct {
	Logger *slog.Logger
}

// Open implements Panel.
func (p LogPanel) Open(details []string, snippet string, url *model.ParsedURL) {
	attrs := []any{
		slog.Any("details", details),
		slog.Int("snippet_bytes", len(snippet)),
	}
	if url != nil {
		attrs = append(attrs, slog.String("hostname", url.Hostname), slog.Int("flagged_params", len(url.FlaggedParams)))
	}
	logger(p.Logger).Info("panel", attrs...)
}

// LogListener writes annotations to a logger.
type LogListener struct {
	Logger *slog.Logger
}

// Annotated implements Listener.
func (l LogListener) Annotated(a model.Annotation) {
	logger(l.Logger).Info("annotated",
		slog.Int("badge", a.BadgeID),
		slog.String("type", a.Result.Type().String()),
		slog.String("kind", a.Kind.String()),
		slog.String("target", a.Target),
		slog.String("reason", a.Result.Reason()),
		slog.Bool("zone", a.Zone),
	)
}

// Listeners fans an annotation out to several listeners in order.
type Listeners []Listener

// Annotated implements Listener.
func (ls Listeners) Annotated(a model.Annotation) {
	for _, l := range ls {
		if l != nil {
			l.Annotated(a)
		}
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// TooltipEvent is one recorded hover.
type TooltipEvent struct {
	Pos     model.Point
	Summary []string
}

// PanelEvent is one recorded click.
type PanelEvent struct {
	Details []string
	Snippet string
	URL     *model.ParsedURL
}

// Recorder implements every collaborator by recording the calls.
// It is safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	tooltips    []TooltipEvent
	panels      []PanelEvent
	annotations []model.Annotation
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Show implements Tooltip.
func (r *Recorder) Show(pos model.Point, summary []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tooltips = append(r.tooltips, TooltipEvent{Pos: pos, Summary: summary})
}

// Open implements Panel.
func (r *Recorder) Open(details []string, snippet string, url *model.ParsedURL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panels = append(r.panels, PanelEvent{Details: details, Snippet: snippet, URL: url})
}

// Annotated implements Listener.
func (r *Recorder) Annotated(a model.Annotation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotations = append(r.annotations, a)
}

// Tooltips returns the recorded hovers.
func (r *Recorder) Tooltips() []TooltipEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TooltipEvent(nil), r.tooltips...)
}

// Panels returns the recorded clicks.
func (r *Recorder) Panels() []PanelEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PanelEvent(nil), r.panels...)
}

// Annotations returns the recorded annotations.
func (r *Recorder) Annotations() []model.Annotation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Annotation(nil), r.annotations...)
}
