package scheduler

import (
	"log/slog"

	"github.com/nao1215/newsadvisor/internal/dom"
	"golang.org/x/net/html"
)

// DefaultMargin is the proximity margin, in pixels, around the viewport.
const DefaultMargin = 200

// Viewport is the visible vertical range of the page.
type Viewport struct {
	Top    int
	Height int

	// All treats every element as visible.
	All bool
}

// Everything returns a viewport that contains every element.
func Everything() Viewport {
	return Viewport{All: true}
}

// Contains reports whether offset lies in the viewport widened by margin.
func (v Viewport) Contains(offset, margin int) bool {
	return v.Overlaps(Extent{Top: offset, Bottom: offset}, margin)
}

// Overlaps reports whether any part of e lies in the viewport widened by
// margin. An element taller than the viewport that straddles it overlaps.
func (v Viewport) Overlaps(e Extent, margin int) bool {
	if v.All {
		return true
	}
	return e.Bottom >= v.Top-margin && e.Top <= v.Top+v.Height+margin
}

// Scheduler gates work on watched elements by viewport proximity.
// It is not safe for concurrent use.
type Scheduler struct {
	doc       *html.Node
	layout    Layout
	margin    int
	viewport  Viewport
	fire      func(*html.Node)
	drop      func(*html.Node)
	watched   map[*html.Node]struct{}
	order     []*html.Node
	connected bool
	logger    *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLayout sets the offset source. The default is a FlowLayout.
func WithLayout(layout Layout) SchedulerOption {
	return func(s *Scheduler) {
		if layout != nil {
			s.layout = layout
		}
	}
}

// WithMargin sets the proximity margin.
func WithMargin(margin int) SchedulerOption {
	return func(s *Scheduler) {
		if margin >= 0 {
			s.margin = margin
		}
	}
}

// WithViewport sets the initial viewport.
func WithViewport(vp Viewport) SchedulerOption {
	return func(s *Scheduler) {
		s.viewport = vp
	}
}

// WithDropHandler sets a function called for watched elements that left
// the document before firing.
func WithDropHandler(fn func(*html.Node)) SchedulerOption {
	return func(s *Scheduler) {
		s.drop = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a connected Scheduler over doc that calls fire for each
// element that comes into range.
func New(doc *html.Node, fire func(*html.Node), opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		doc:       doc,
		margin:    DefaultMargin,
		viewport:  Viewport{Top: 0, Height: 800},
		fire:      fire,
		watched:   make(map[*html.Node]struct{}),
		connected: true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.layout == nil {
		s.layout = NewFlowLayout(doc, DefaultRowHeight)
	}
	return s
}

// Watch adds n to the watch set. Like an intersection observer, it does
// not fire synchronously; the next Flush or Scroll evaluates n.
func (s *Scheduler) Watch(n *html.Node) bool {
	if !s.connected || n == nil {
		return false
	}
	if _, ok := s.watched[n]; ok {
		return false
	}
	s.watched[n] = struct{}{}
	s.order = append(s.order, n)
	return true
}

// Unwatch removes n without firing.
func (s *Scheduler) Unwatch(n *html.Node) {
	delete(s.watched, n)
}

// Watching reports whether n is in the watch set.
func (s *Scheduler) Watching(n *html.Node) bool {
	_, ok := s.watched[n]
	return ok
}

// Len returns the number of watched elements.
func (s *Scheduler) Len() int {
	return len(s.watched)
}

// Viewport returns the current viewport.
func (s *Scheduler) Viewport() Viewport {
	return s.viewport
}

// Margin returns the proximity margin.
func (s *Scheduler) Margin() int {
	return s.margin
}

// Scroll moves the viewport and fires elements that came into range.
func (s *Scheduler) Scroll(vp Viewport) int {
	s.viewport = vp
	return s.Flush()
}

// Invalidate discards cached layout after the tree changed.
func (s *Scheduler) Invalidate() {
	if inv, ok := s.layout.(Invalidator); ok {
		inv.Invalidate()
	}
}

// Flush evaluates every watched element against the current viewport, in
// watch order, and returns the number fired.
func (s *Scheduler) Flush() int {
	if !s.connected {
		return 0
	}
	pending := s.order
	s.order = nil
	fired := 0

	for _, n := range pending {
		if !s.connected {
			break
		}
		if _, ok := s.watched[n]; !ok {
			continue
		}
		if !dom.Attached(s.doc, n) {
			delete(s.watched, n)
			s.logger.Debug("dropped detached watch", slog.String("element", dom.Describe(n)))
			if s.drop != nil {
				s.drop(n)
			}
			continue
		}
		extent, ok := s.layout.Extent(n)
		if !ok || !s.viewport.Overlaps(extent, s.margin) {
			s.order = append(s.order, n)
			continue
		}
		delete(s.watched, n)
		fired++
		s.fire(n)
		if !s.connected {
			s.order = nil
			return fired
		}
	}
	return fired
}

// Disconnect stops the scheduler and forgets every watch. Watch is a no-op
// until Reconnect.
func (s *Scheduler) Disconnect() {
	s.connected = false
	s.watched = make(map[*html.Node]struct{})
	s.order = nil
}

// Reconnect re-enables a disconnected scheduler.
func (s *Scheduler) Reconnect() {
	s.connected = true
}

// Connected reports whether the scheduler is running.
func (s *Scheduler) Connected() bool {
	return s.connected
}
