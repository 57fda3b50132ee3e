// Package watcher applies mutation batches to a document and finds the
// candidates they introduce.
//
// Every insertion in a batch is scanned together; there is no debouncing
// beyond the batching the host already does. The visibility scheduler is
// the only lazy gate.
package watcher

import (
	"fmt"
	"log/slog"

	"github.com/andybalholm/cascadia"
	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"golang.org/x/net/html"
)

// Found is a candidate discovered by a scan.
type Found struct {
	Candidate candidate.Candidate
	Decision  candidate.Decision
}

// Applied summarises one applied batch.
type Applied struct {
	// Inserted are the element roots added to the document.
	Inserted []*html.Node

	// Removed counts detached targets.
	Removed int

	// Failed counts records that could not be applied.
	Failed int

	// Stale is true when the batch was older than one already applied.
	Stale bool
}

// Watcher owns the document side of mutation handling for one session.
// It is not safe for concurrent use.
type Watcher struct {
	doc       *html.Node
	detector  *candidate.Detector
	logger    *slog.Logger
	lastSeq   uint64
	connected bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a connected Watcher over doc.
func New(doc *html.Node, detector *candidate.Detector, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		doc:       doc,
		detector:  detector,
		logger:    slog.Default(),
		connected: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Document returns the watched document.
func (w *Watcher) Document() *html.Node {
	return w.doc
}

// Connected reports whether insertions are being reported.
func (w *Watcher) Connected() bool {
	return w.connected
}

// Disconnect stops reporting insertions.
func (w *Watcher) Disconnect() {
	w.connected = false
}

// Reconnect resumes reporting insertions.
func (w *Watcher) Reconnect() {
	w.connected = true
}

// Apply applies every record of the batch to the document. Records that
// cannot be applied are logged and skipped; the rest of the batch still
// applies. A disconnected watcher keeps the document current but reports
// no insertions.
func (w *Watcher) Apply(batch mutation.Batch) Applied {
	var out Applied
	if batch.Seq != 0 {
		if batch.Seq <= w.lastSeq {
			w.logger.Warn("stale mutation batch ignored",
				slog.Uint64("seq", batch.Seq), slog.Uint64("last", w.lastSeq))
			out.Stale = true
			return out
		}
		if w.lastSeq != 0 && batch.Seq != w.lastSeq+1 {
			w.logger.Debug("mutation batch gap",
				slog.Uint64("seq", batch.Seq), slog.Uint64("last", w.lastSeq))
		}
		w.lastSeq = batch.Seq
	}

	for _, rec := range batch.Records {
		roots, err := w.applyRecord(rec)
		if err != nil {
			out.Failed++
			w.logger.Debug("mutation record skipped",
				slog.String("op", string(rec.Op)),
				slog.String("target", rec.Target()),
				slog.String("error", err.Error()))
			continue
		}
		if rec.Op == mutation.OpRemove {
			out.Removed++
		}
		out.Inserted = append(out.Inserted, roots...)
	}
	if !w.connected {
		out.Inserted = nil
	}
	return out
}

func (w *Watcher) applyRecord(rec mutation.Record) ([]*html.Node, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	target, err := w.resolve(rec)
	if err != nil {
		return nil, err
	}

	switch rec.Op {
	case mutation.OpInsert:
		nodes, err := dom.ParseFragment(target, rec.HTML)
		if err != nil {
			return nil, fmt.Errorf("parse fragment: %w", err)
		}
		roots := make([]*html.Node, 0, len(nodes))
		for _, n := range nodes {
			target.AppendChild(n)
			if n.Type == html.ElementNode {
				roots = append(roots, n)
			}
		}
		return roots, nil
	case mutation.OpRemove:
		if target.Parent == nil {
			return nil, fmt.Errorf("cannot remove document root")
		}
		dom.Detach(target)
	case mutation.OpAttr:
		dom.SetAttr(target, rec.Name, rec.Value)
	case mutation.OpAttrDel:
		dom.RemoveAttr(target, rec.Name)
	}
	return nil, nil
}

func (w *Watcher) resolve(rec mutation.Record) (*html.Node, error) {
	if rec.XPath != "" {
		n := dom.Resolve(w.doc, rec.XPath)
		if n == nil {
			return nil, fmt.Errorf("xpath %q not found", rec.XPath)
		}
		return n, nil
	}
	sel, err := cascadia.Compile(rec.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", rec.Selector, err)
	}
	n := sel.MatchFirst(w.doc)
	if n == nil {
		return nil, fmt.Errorf("selector %q matched nothing", rec.Selector)
	}
	return n, nil
}

// Scan finds candidates at or below each root, in document order, each at
// most once. Roots no longer in the document are ignored. Frames and
// templates are reported but never entered. Widget containers are entered,
// so a frame inside one is reported separately, bound to its container.
func (w *Watcher) Scan(roots []*html.Node) []Found {
	found := make([]Found, 0)
	seen := make(map[*html.Node]struct{})
	for _, root := range roots {
		if !dom.Attached(w.doc, root) {
			continue
		}
		dom.Walk(root, func(n *html.Node) bool {
			if _, ok := seen[n]; ok {
				return false
			}
			seen[n] = struct{}{}
			if c, decision := w.detector.Detect(n); decision != candidate.Ignore {
				found = append(found, Found{Candidate: c, Decision: decision})
			}
			return true
		})
	}
	return found
}

// ScanDocument scans the whole document.
func (w *Watcher) ScanDocument() []Found {
	return w.Scan([]*html.Node{w.doc})
}
