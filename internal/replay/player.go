package replay

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/andybalholm/cascadia"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"golang.org/x/net/html"
)

// StepResult records what one step did.
type StepResult struct {
	Index  int
	Action Action

	// Inserted, Removed and Failed come from the applied mutation batch.
	Inserted int
	Removed  int
	Failed   int

	// Fired is the number of classifications a scroll triggered.
	Fired int

	// Annotated is the number of annotations added by the step.
	Annotated int

	// Handled is true when a pointer step reached an annotated element.
	Handled bool

	// Diagnosis is set by probe steps that found a classifiable element.
	Diagnosis *engine.Diagnosis

	// Missing is true when the target of a pointer step was not found.
	Missing bool
}

// Player runs scripts against sessions.
type Player struct {
	logger *slog.Logger
	seq    uint64
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) {
		p.logger = logger
	}
}

// NewPlayer creates a Player.
func NewPlayer(opts ...PlayerOption) *Player {
	p := &Player{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play initializes sess if needed and runs every step in order. It stops
// early only when ctx is done.
func (p *Player) Play(ctx context.Context, sess *engine.Session, script *Script) ([]StepResult, error) {
	if !sess.Initialized() {
		sess.Init()
	}

	results := make([]StepResult, 0, len(script.Steps))
	for i, st := range script.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		before := annotationIDs(sess)
		res := p.step(sess, st)
		res.Index = i + 1
		res.Action = st.Action
		res.Annotated = countNew(before, sess.Annotations())

		p.logger.Debug("replay step",
			"index", res.Index,
			"action", string(st.Action),
			"inserted", res.Inserted,
			"annotated", res.Annotated)
		results = append(results, res)
	}
	return results, nil
}

func (p *Player) step(sess *engine.Session, st Step) StepResult {
	var res StepResult
	switch st.Action {
	case ActionInsert, ActionRemove, ActionAttr, ActionAttrDel:
		p.deliver(sess, []mutation.Record{st.record()}, &res)
	case ActionBatch:
		p.deliver(sess, st.Records, &res)
	case ActionScroll:
		vp := sess.Viewport()
		vp.Top = st.Top
		vp.All = st.All
		if st.Height > 0 {
			vp.Height = st.Height
		}
		res.Fired = sess.HandleViewport(vp)
	case ActionSettings:
		next := sess.Settings()
		for _, k := range slices.Sorted(maps.Keys(st.Set)) {
			// Validated when the script was parsed.
			_ = next.Set(k, st.Set[k])
		}
		sess.ApplySettings(next)
	case ActionHover, ActionClick, ActionProbe:
		p.point(sess, st, &res)
	case ActionTeardown:
		sess.Teardown()
	case ActionInit:
		sess.Init()
	}
	return res
}

func (p *Player) deliver(sess *engine.Session, records []mutation.Record, res *StepResult) {
	p.seq++
	applied := sess.HandleMutations(mutation.Batch{
		Seq:     p.seq,
		PageURL: sess.Page().String(),
		Records: records,
	})
	res.Inserted = len(applied.Inserted)
	res.Removed = applied.Removed
	res.Failed = applied.Failed
}

func (p *Player) point(sess *engine.Session, st Step, res *StepResult) {
	target, err := resolveTarget(sess.Document(), st.XPath, st.Selector)
	if err != nil || target == nil {
		res.Missing = true
		p.logger.Warn("replay target not found", "xpath", st.XPath, "selector", st.Selector, "error", err)
		return
	}

	ev := engine.PointerEvent{
		Kind:   engine.PointerHover,
		Target: target,
		Pos:    model.Point{X: st.X, Y: st.Y},
	}
	switch st.Action {
	case ActionClick:
		ev.Kind = engine.PointerClick
	case ActionProbe:
		ev.Kind = engine.PointerClick
		ev.Modifier = true
	}

	d, ok := sess.HandlePointer(ev)
	if st.Action == ActionProbe {
		if ok {
			res.Diagnosis = &d
		}
		return
	}
	res.Handled = ok
}

// resolveTarget finds a node by XPath or, failing that, by CSS selector.
func resolveTarget(doc *html.Node, xpath, selector string) (*html.Node, error) {
	if xpath != "" {
		return dom.Resolve(doc, xpath), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return cascadia.Query(doc, sel), nil
}

func annotationIDs(sess *engine.Session) map[int]bool {
	ids := make(map[int]bool)
	for _, a := range sess.Annotations() {
		ids[a.BadgeID] = true
	}
	return ids
}

func countNew(before map[int]bool, after []model.Annotation) int {
	n := 0
	for _, a := range after {
		if !before[a.BadgeID] {
			n++
		}
	}
	return n
}
