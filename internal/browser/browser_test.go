package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/mutation"
	"github.com/nao1215/newsadvisor/internal/scheduler"
	"golang.org/x/net/html"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePage returns queued polls in order, then empty ones.
type fakePage struct {
	mu    sync.Mutex
	polls []Drained
	err   error
	calls int
}

func (f *fakePage) Drain(context.Context) (Drained, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.polls) == 0 {
		if f.err != nil {
			return Drained{}, f.err
		}
		return Drained{}, nil
	}
	d := f.polls[0]
	f.polls = f.polls[1:]
	return d, nil
}

// TestObserverScript tests the embedded page script.
func TestObserverScript(t *testing.T) {
	t.Parallel()

	if !strings.HasPrefix(strings.TrimSpace(observerJS), "() =>") {
		t.Error("observer script must be a function expression")
	}
	for _, want := range []string{"window.__advisor", "drain", "stamp", "mark", scheduler.OffsetAttr, scheduler.BottomAttr, "data-advisor-badge"} {
		if !strings.Contains(observerJS, want) {
			t.Errorf("observer script missing %q", want)
		}
	}
}

// TestDecodeDrain tests decoding of polled records.
func TestDecodeDrain(t *testing.T) {
	t.Parallel()

	d, err := decodeDrain(`{"records":[
		{"op":"insert","xpath":"/html/body/main","html":"<a href=\"/x\">x</a>"},
		{"op":"attr_del","xpath":"/html/body/div[2]","name":"hidden"}
	],"top":350,"height":800}`)
	if err != nil {
		t.Fatalf("decodeDrain() error = %v", err)
	}
	if len(d.Records) != 2 || d.Records[0].Op != mutation.OpInsert || d.Records[1].Name != "hidden" {
		t.Errorf("records = %+v", d.Records)
	}
	if d.Viewport != (scheduler.Viewport{Top: 350, Height: 800}) {
		t.Errorf("viewport = %+v", d.Viewport)
	}

	if _, err := decodeDrain("undefined"); err == nil {
		t.Error("expected error for invalid payload")
	}
}

// TestPump tests batching and viewport forwarding.
func TestPump(t *testing.T) {
	t.Parallel()

	src := &fakePage{polls: []Drained{
		{Viewport: scheduler.Viewport{Top: 0, Height: 900}},
		{Records: []mutation.Record{mutation.Insert("/html/body", "<p>a</p>")}, Viewport: scheduler.Viewport{Top: 0, Height: 900}},
		{Records: []mutation.Record{mutation.Remove("/html/body/p")}, Viewport: scheduler.Viewport{Top: 400, Height: 900}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mutations := make(chan mutation.Batch)
	viewport := make(chan scheduler.Viewport)
	done := make(chan error, 1)
	go func() {
		done <- pump(ctx, src, pumpConfig{
			interval: time.Millisecond,
			pageURL:  "https://news.example.com/",
			initial:  scheduler.Viewport{Top: 0, Height: 900},
			logger:   quiet(),
		}, mutations, viewport)
	}()

	first := <-mutations
	if first.Seq != 1 || first.PageURL != "https://news.example.com/" || len(first.Records) != 1 {
		t.Errorf("first batch = %+v", first)
	}
	second := <-mutations
	if second.Seq != 2 || second.Records[0].Op != mutation.OpRemove {
		t.Errorf("second batch = %+v", second)
	}
	if vp := <-viewport; vp.Top != 400 {
		t.Errorf("viewport = %+v", vp)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("pump() error = %v", err)
	}
}

// TestPumpDrainError tests that a failing page stops the pump.
func TestPumpDrainError(t *testing.T) {
	t.Parallel()

	failure := errors.New("target closed")
	err := pump(context.Background(), &fakePage{err: failure}, pumpConfig{
		interval: time.Millisecond,
		logger:   quiet(),
	}, make(chan mutation.Batch), make(chan scheduler.Viewport))
	if !errors.Is(err, failure) {
		t.Errorf("pump() error = %v", err)
	}
}

// TestPumpDrivesSession tests a session kept in sync by polled records.
func TestPumpDrivesSession(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader(`<html><body><main data-advisor-top="0"></main></body></html>`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	sess, err := engine.NewSession(doc, "https://news.example.com/",
		engine.WithLogger(quiet()),
		engine.WithSettings(config.DefaultSettings()),
		engine.WithViewport(scheduler.Viewport{Top: 0, Height: 900}),
		engine.WithLayout(scheduler.AttrLayout{Fallback: scheduler.NewFlowLayout(doc, config.DefaultRowHeight)}),
	)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	sess.Init()

	src := &fakePage{polls: []Drained{{
		Records: []mutation.Record{mutation.Insert("/html/body/main",
			`<article data-advisor-top="120"><a data-advisor-top="120" href="https://ad.doubleclick.net/clk?id=7">Great deals on shoes today</a></article>`)},
		Viewport: scheduler.Viewport{Top: 0, Height: 900},
	}}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mutations := make(chan mutation.Batch)
	viewport := make(chan scheduler.Viewport)
	go func() {
		defer close(mutations)
		defer close(viewport)
		_ = pump(ctx, src, pumpConfig{interval: time.Millisecond, logger: quiet()}, mutations, viewport)
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- sess.Run(ctx, engine.Inputs{Mutations: mutations, Viewport: viewport})
	}()

	// The session is single-goroutine; read its state only after Run returns.
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sess.Annotations()) != 1 {
		t.Fatalf("expected the inserted ad to be annotated, got %d", len(sess.Annotations()))
	}
}

// TestHostLifecycle tests the host without launching a browser.
func TestHostLifecycle(t *testing.T) {
	t.Parallel()

	h := NewHost(WithLogger(quiet()), WithPollInterval(0), WithStealth(false), WithHeadful(true), WithBrowserURL("ws://127.0.0.1:9222/x"))
	if h.pollInterval != config.DefaultPollInterval {
		t.Errorf("pollInterval = %v", h.pollInterval)
	}
	if h.stealth || !h.headful || h.browserURL == "" {
		t.Errorf("options not applied: %+v", h)
	}

	if _, err := h.Open(context.Background(), "https://news.example.com/"); err == nil {
		t.Error("expected error before Start")
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := h.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v", err)
	}
	if _, err := h.Open(context.Background(), "https://news.example.com/"); !errors.Is(err, ErrClosed) {
		t.Errorf("Open() after Close error = %v", err)
	}
}
