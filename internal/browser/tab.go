package browser

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/loader"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"github.com/nao1215/newsadvisor/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

//go:embed observer.js
var observerJS string

// Tab is one live page.
type Tab struct {
	page         *rod.Page
	url          string
	pollInterval time.Duration
	logger       *slog.Logger
}

// URL returns the address the tab was opened with.
func (t *Tab) URL() string {
	return t.url
}

// Snapshot stamps rendered offsets on every element and parses the
// current document. The result seeds the session that Stream keeps in
// sync.
func (t *Tab) Snapshot(ctx context.Context) (*loader.Page, error) {
	p := t.page.Context(ctx)
	if _, err := p.Eval(`() => window.__advisor.stamp()`); err != nil {
		return nil, fmt.Errorf("stamp offsets: %w", err)
	}
	res, err := p.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	markup := res.Value.Str()

	pageURL := t.url
	if info, err := p.Info(); err == nil && info.URL != "" {
		pageURL = info.URL
	}

	page, err := loader.Parse(strings.NewReader(markup), pageURL)
	if err != nil {
		return nil, err
	}
	page.Source = t.url
	page.Size = int64(len(markup))

	if res, err := p.Eval(`() => window.innerHeight`); err == nil {
		page.ViewportHeight = res.Value.Int()
	}
	return page, nil
}

// Observe starts recording mutations. Records made before Observe are
// part of the snapshot.
func (t *Tab) Observe(ctx context.Context) error {
	if _, err := t.page.Context(ctx).Eval(`() => window.__advisor.start()`); err != nil {
		return fmt.Errorf("start observer: %w", err)
	}
	return nil
}

// Drain takes the queued records and the current scroll position.
func (t *Tab) Drain(ctx context.Context) (Drained, error) {
	res, err := t.page.Context(ctx).Eval(`() => window.__advisor.drain()`)
	if err != nil {
		return Drained{}, err
	}
	return decodeDrain(res.Value.Str())
}

// Annotated mirrors an annotation into the live page. It implements
// present.Listener.
func (t *Tab) Annotated(a model.Annotation) {
	typ := a.Result.Type()
	res, err := t.page.Eval(`(target, anchor, type, label, id) => window.__advisor.mark(target, anchor, type, label, id)`,
		a.Target, a.Anchor, typ.String(), typ.Label(), a.BadgeID)
	switch {
	case err != nil:
		t.logger.Debug("badge not mirrored", slog.Int("badge", a.BadgeID), slog.String("error", err.Error()))
	case !res.Value.Bool():
		t.logger.Debug("badge target not found in page", slog.Int("badge", a.BadgeID), slog.String("target", a.Target))
	}
}

// Stream runs sess against the live page until ctx is done or polling
// fails. Settings received on settings are applied to the session; a nil
// channel is allowed.
func (t *Tab) Stream(ctx context.Context, sess *engine.Session, settings <-chan config.Settings) error {
	if err := t.Observe(ctx); err != nil {
		return err
	}

	mutations := make(chan mutation.Batch)
	viewport := make(chan scheduler.Viewport)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(mutations)
		defer close(viewport)
		return pump(ctx, t, pumpConfig{
			interval: t.pollInterval,
			pageURL:  t.url,
			initial:  sess.Viewport(),
			logger:   t.logger,
		}, mutations, viewport)
	})
	g.Go(func() error {
		return sess.Run(ctx, engine.Inputs{
			Mutations: mutations,
			Viewport:  viewport,
			Settings:  settings,
		})
	})
	return g.Wait()
}

// Close closes the tab.
func (t *Tab) Close() error {
	return t.page.Close()
}
