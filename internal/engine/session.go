package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/nao1215/newsadvisor/internal/anchor"
	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/classify"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/nao1215/newsadvisor/internal/registry"
	"github.com/nao1215/newsadvisor/internal/scheduler"
	"github.com/nao1215/newsadvisor/internal/watcher"
	"golang.org/x/net/html"
)

// Session is the advisor bound to one page.
type Session struct {
	doc      *html.Node
	page     classify.Location
	settings config.Settings
	logger   *slog.Logger

	detector       *candidate.Detector
	classifierOpts []classify.ClassifierOption
	classifier     *classify.Classifier
	registry       *registry.Registry
	watcher        *watcher.Watcher
	sched          *scheduler.Scheduler
	annotator      *present.Annotator

	layout   scheduler.Layout
	margin   int
	viewport scheduler.Viewport

	tooltip  present.Tooltip
	panel    present.Panel
	listener present.Listener

	report      *model.PageReport
	live        map[int]model.Annotation
	started     time.Time
	initialized bool
	active      bool
}

// NewSession creates a session over doc for the page at pageURL. The
// session does nothing until Init or Run is called.
func NewSession(doc *html.Node, pageURL string, opts ...SessionOption) (*Session, error) {
	if doc == nil {
		return nil, fmt.Errorf("new session: nil document")
	}
	page, err := classify.ParseLocation(pageURL)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	s := &Session{
		doc:      doc,
		page:     page,
		settings: config.DefaultSettings(),
		logger:   slog.Default(),
		margin:   scheduler.DefaultMargin,
		viewport: scheduler.Viewport{Top: 0, Height: config.DefaultViewportHeight},
		live:     make(map[int]model.Annotation),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = candidate.MustDetector()
	}
	if s.layout == nil {
		s.layout = scheduler.AttrLayout{Fallback: scheduler.NewFlowLayout(doc, scheduler.DefaultRowHeight)}
	}

	s.logger = s.logger.With(slog.String("page", page.String()))
	s.classifier = classify.New(page, append(s.classifierOpts, classify.WithLogger(s.logger))...)
	s.registry = registry.New()
	s.watcher = watcher.New(doc, s.detector, watcher.WithLogger(s.logger))
	s.annotator = present.NewAnnotator(doc)
	s.report = model.NewPageReport(page.String(), page.Hostname())
	return s, nil
}

// Document returns the live document.
func (s *Session) Document() *html.Node {
	return s.doc
}

// Page returns the page location.
func (s *Session) Page() classify.Location {
	return s.page
}

// Settings returns the current settings.
func (s *Session) Settings() config.Settings {
	return s.settings
}

// Viewport returns the last viewport the session was given.
func (s *Session) Viewport() scheduler.Viewport {
	return s.viewport
}

// Active reports whether the session is classifying and annotating.
func (s *Session) Active() bool {
	return s.active
}

// Initialized reports whether Init ran since the last Teardown.
func (s *Session) Initialized() bool {
	return s.initialized
}

// Processed reports whether n has been classified, skipped or suppressed.
func (s *Session) Processed(n *html.Node) bool {
	return s.registry.IsProcessed(n)
}

// Pending returns the number of candidates waiting for visibility.
func (s *Session) Pending() int {
	return s.registry.PendingCount()
}

// Zones returns the promoted containers in promotion order.
func (s *Session) Zones() []*html.Node {
	return s.registry.Zones()
}

// Annotations returns the live annotations in badge order.
func (s *Session) Annotations() []model.Annotation {
	out := make([]model.Annotation, 0, len(s.live))
	for _, id := range slices.Sorted(maps.Keys(s.live)) {
		out = append(out, s.live[id])
	}
	return out
}

// Report returns the session report, with timing and pending count
// brought up to date.
func (s *Session) Report() *model.PageReport {
	s.report.Elapsed = time.Since(s.started)
	s.report.Pending = s.registry.PendingCount()
	return s.report
}

// Init scans the document and starts watching candidates. When the
// settings keep the advisor off for this host, only focus mode is
// applied. Init on an initialized session does nothing.
func (s *Session) Init() {
	if s.initialized {
		return
	}
	s.initialized = true
	host := s.page.Hostname()
	s.annotator.SetFocus(s.settings.FocusActive(host))

	if !s.settings.Active(host) {
		s.active = false
		s.report.Disabled = true
		s.watcher.Disconnect()
		s.logger.Info("advisor inactive on this page",
			slog.Bool("enabled", s.settings.Enabled),
			slog.Bool("overlay", s.settings.Overlay),
			slog.Bool("allow_listed", s.settings.Allowed(host)),
		)
		return
	}

	s.active = true
	s.report.Disabled = false
	s.watcher.Reconnect()
	s.sched = scheduler.New(s.doc, s.fire,
		scheduler.WithLayout(s.layout),
		scheduler.WithMargin(s.margin),
		scheduler.WithViewport(s.viewport),
		scheduler.WithDropHandler(s.registry.Forget),
		scheduler.WithLogger(s.logger),
	)
	s.invalidate()
	s.register(s.watcher.ScanDocument())
	fired := s.sched.Flush()
	s.logger.Debug("session initialized",
		slog.Int("registered", s.report.Stats.Registered),
		slog.Int("fired", fired),
	)
}

// Teardown stops the session and removes every badge and marker it
// added. The session stays usable: Init starts it again from scratch.
func (s *Session) Teardown() {
	if s.sched != nil {
		s.sched.Disconnect()
		s.sched = nil
	}
	s.watcher.Disconnect()
	s.annotator.Revert()
	s.registry.Reset()
	s.live = make(map[int]model.Annotation)
	s.initialized = false
	s.active = false
	s.logger.Debug("session torn down")
}

// ApplySettings replaces the settings. A change in whether the advisor is
// active for this host restarts the session; otherwise only focus mode is
// re-evaluated. Tooltip and panel toggles apply to the next pointer event.
func (s *Session) ApplySettings(next config.Settings) {
	prev := s.settings
	s.settings = next
	if !s.initialized {
		return
	}
	host := s.page.Hostname()
	if prev.Active(host) != next.Active(host) {
		s.Teardown()
		s.Init()
		return
	}
	s.annotator.SetFocus(next.FocusActive(host))
}

// HandleMutations applies a batch to the document and processes the
// candidates it introduced.
func (s *Session) HandleMutations(batch mutation.Batch) watcher.Applied {
	applied := s.watcher.Apply(batch)
	s.invalidate()
	if !s.active || s.sched == nil {
		return applied
	}
	if applied.Failed > 0 {
		s.logger.Debug("mutation batch partially applied", slog.Int("failed", applied.Failed))
	}
	s.register(s.watcher.Scan(applied.Inserted))
	s.sched.Flush()
	return applied
}

// HandleViewport moves the viewport and classifies what came into range.
func (s *Session) HandleViewport(vp scheduler.Viewport) int {
	s.viewport = vp
	if !s.active || s.sched == nil {
		return 0
	}
	return s.sched.Scroll(vp)
}

func (s *Session) invalidate() {
	if inv, ok := s.layout.(scheduler.Invalidator); ok {
		inv.Invalidate()
	}
}

func (s *Session) register(found []watcher.Found) {
	for _, f := range found {
		n := f.Candidate.Node()
		switch f.Decision {
		case candidate.Skip:
			if s.registry.Skip(n) {
				s.report.Stats.Skipped++
			}
		case candidate.Register:
			if !s.registry.Register(n, f.Candidate.Kind()) {
				continue
			}
			s.report.Stats.Registered++
			s.sched.Watch(n)
		}
	}
}

// fire is called by the scheduler when a watched candidate comes into
// range.
func (s *Session) fire(n *html.Node) {
	kind, ok := s.registry.Pending(n)
	if !ok {
		return
	}
	if zone, t, inZone := s.registry.ZoneOf(n); inZone {
		s.registry.MarkProcessed(n)
		s.report.Stats.Suppressed++
		s.logger.Debug("candidate suppressed by zone",
			slog.String("element", dom.Describe(n)),
			slog.String("zone", dom.Describe(zone)),
			slog.String("zone_type", t.String()),
		)
		return
	}
	s.registry.MarkProcessed(n)
	s.guard(n, func() { s.classify(n, kind) })
}

// guard runs fn and absorbs a panic so that one candidate never blocks
// the rest of the batch.
func (s *Session) guard(n *html.Node, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.report.Stats.Failed++
			s.logger.Warn("candidate handling aborted",
				slog.String("element", dom.Describe(n)),
				slog.Any("panic", r),
			)
		}
	}()
	fn()
}

func (s *Session) classify(n *html.Node, kind model.Kind) {
	cand := s.detector.Rebuild(n, kind)
	if cand == nil {
		panic(fmt.Sprintf("unknown candidate kind %d", kind))
	}
	out := s.classifier.Classify(cand)
	if out.Skipped {
		s.report.Stats.Skipped++
		return
	}

	t := out.Result.Type()
	s.report.Stats.Classified[t]++
	if !t.Annotated() {
		return
	}

	target := out.Target
	if target == nil {
		target = n
	}
	snippet := dom.Snippet(target)
	injection := anchor.Select(target)
	targetPath, anchorPath := dom.XPath(target), dom.XPath(injection)

	zone := false
	if out.Zone != nil && s.registry.PromoteToZone(out.Zone, t) {
		s.annotator.MarkZone(out.Zone, t)
		s.report.Stats.Zones++
		zone = true
	}

	id := s.annotator.Annotate(target, injection, t)
	a := model.Annotation{
		BadgeID:     id,
		Kind:        kind,
		Result:      out.Result,
		Target:      targetPath,
		Anchor:      anchorPath,
		Snippet:     snippet,
		URL:         out.URL,
		Zone:        zone,
		Fingerprint: model.Fingerprint(snippet),
	}
	s.live[id] = a
	s.report.Annotations = append(s.report.Annotations, a)
	if s.listener != nil {
		s.listener.Annotated(a)
	}
}
