package replay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/nao1215/newsadvisor/internal/scheduler"
	"golang.org/x/net/html"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T, body string) (*engine.Session, *present.Recorder) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><head></head><body>" + body + "</body></html>"))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	rec := present.NewRecorder()
	s, err := engine.NewSession(doc, "https://news.example.com/world",
		engine.WithLogger(quiet()),
		engine.WithViewport(scheduler.Viewport{Top: 0, Height: 800}),
		engine.WithMargin(200),
		engine.WithTooltip(rec),
		engine.WithPanel(rec),
		engine.WithListener(rec),
	)
	if err != nil {
		t.Fatalf("NewSession error = %v", err)
	}
	return s, rec
}

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

const feedScript = `
page: https://news.example.com/world
steps:
  - action: insert
    xpath: /html/body/main
    html: <article data-advisor-top="100"><a id="ad" href="https://ad.doubleclick.net/clk?gclid=1">Great deals on shoes today</a></article>
  - action: insert
    selector: main
    html: <article data-advisor-top="4000"><a id="far" href="/world/2026/far">Another long headline further down</a></article>
  - action: scroll
    top: 3800
  - action: hover
    selector: "#ad"
    x: 5
    y: 6
  - action: click
    xpath: /html/body/main/article[1]/a
  - action: probe
    selector: "#far"
  - action: settings
    set:
      focus_mode: "true"
  - action: remove
    selector: "#far"
  - action: scroll
    top: 0
  - action: teardown
  - action: init
`

// TestPlay tests a full script against a session.
func TestPlay(t *testing.T) {
	t.Parallel()

	sess, rec := newSession(t, `<main></main>`)
	script := mustParse(t, feedScript)
	if script.Page != "https://news.example.com/world" || len(script.Steps) != 11 {
		t.Fatalf("script = %+v", script)
	}

	results, err := NewPlayer(WithLogger(quiet())).Play(context.Background(), sess, script)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if len(results) != 11 {
		t.Fatalf("expected 11 results, got %d", len(results))
	}

	insertAd, insertFar, scroll := results[0], results[1], results[2]
	if insertAd.Inserted != 1 || insertAd.Annotated != 1 {
		t.Errorf("first insert = %+v", insertAd)
	}
	if insertFar.Inserted != 1 || insertFar.Annotated != 0 {
		t.Errorf("far insert must wait for the viewport: %+v", insertFar)
	}
	if scroll.Fired != 1 || scroll.Annotated != 1 {
		t.Errorf("scroll = %+v", scroll)
	}

	if !results[3].Handled || !results[4].Handled {
		t.Error("expected pointer steps to reach the ad annotation")
	}
	tips := rec.Tooltips()
	if len(tips) != 1 || tips[0].Pos.X != 5 || tips[0].Pos.Y != 6 {
		t.Errorf("tooltips = %+v", tips)
	}
	if len(rec.Panels()) != 1 {
		t.Errorf("expected one panel, got %d", len(rec.Panels()))
	}

	probe := results[5]
	if probe.Diagnosis == nil || probe.Diagnosis.Result.Type().String() != "news" {
		t.Errorf("probe = %+v", probe.Diagnosis)
	}

	if !dom.HasClass(dom.Body(sess.Document()), present.FocusClass) {
		t.Error("expected focus mode after the settings step")
	}
	if results[7].Removed != 1 {
		t.Errorf("remove = %+v", results[7])
	}

	// teardown reverts, init labels the remaining ad again
	if results[8].Fired != 0 || results[10].Annotated != 1 || !sess.Active() {
		t.Errorf("scroll back = %+v, init = %+v", results[8], results[10])
	}
}

// TestPlayMissingTarget tests pointer steps on absent elements.
func TestPlayMissingTarget(t *testing.T) {
	t.Parallel()

	sess, _ := newSession(t, `<main></main>`)
	script := mustParse(t, `
steps:
  - action: hover
    selector: "#nothing"
  - action: probe
    xpath: /html/body/aside
`)
	results, err := NewPlayer(WithLogger(quiet())).Play(context.Background(), sess, script)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	for _, r := range results {
		if !r.Missing || r.Handled || r.Diagnosis != nil {
			t.Errorf("result = %+v", r)
		}
	}
}

// TestPlayBatchSequence tests that batches are sequenced and failed
// records are counted.
func TestPlayBatchSequence(t *testing.T) {
	t.Parallel()

	sess, _ := newSession(t, `<main></main>`)
	script := mustParse(t, `
steps:
  - action: batch
    records:
      - {op: insert, xpath: /html/body/main, html: "<p>one</p>"}
      - {op: insert, xpath: /html/body/section, html: "<p>lost</p>"}
      - {op: attr, xpath: /html/body/main, name: class, value: feed}
  - action: insert
    xpath: /html/body/main
    html: <p>two</p>
`)
	results, err := NewPlayer(WithLogger(quiet())).Play(context.Background(), sess, script)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if results[0].Inserted != 1 || results[0].Failed != 1 {
		t.Errorf("batch = %+v", results[0])
	}
	if results[1].Inserted != 1 {
		t.Error("second batch must not be treated as stale")
	}
	main := dom.Resolve(sess.Document(), "/html/body/main")
	if dom.Attr(main, "class") != "feed" {
		t.Error("expected attribute record to be applied")
	}
}

// TestPlayCanceled tests that a done context stops the script.
func TestPlayCanceled(t *testing.T) {
	t.Parallel()

	sess, _ := newSession(t, `<main></main>`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewPlayer(WithLogger(quiet())).Play(ctx, sess, mustParse(t, "steps:\n  - action: teardown\n"))
	if !errors.Is(err, context.Canceled) || len(results) != 0 {
		t.Errorf("Play() = %v, %v", results, err)
	}
	if !sess.Initialized() {
		t.Error("expected Play to initialize the session")
	}
}

// TestParseErrors tests script validation.
func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"invalid yaml", "steps: [\n"},
		{"unknown action", "steps:\n  - action: jump\n"},
		{"insert without target", "steps:\n  - action: insert\n    html: <p>x</p>\n"},
		{"attr without name", "steps:\n  - action: attr\n    xpath: /html/body\n"},
		{"empty batch", "steps:\n  - action: batch\n"},
		{"bad batch record", "steps:\n  - action: batch\n    records:\n      - {op: text, xpath: /html}\n"},
		{"pointer without target", "steps:\n  - action: click\n"},
		{"negative height", "steps:\n  - action: scroll\n    height: -1\n"},
		{"unknown setting", "steps:\n  - action: settings\n    set: {colour: red}\n"},
		{"bad setting value", "steps:\n  - action: settings\n    set: {enabled: maybe}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.src)); !errors.Is(err, ErrInvalidScript) {
				t.Errorf("Parse() error = %v, expected ErrInvalidScript", err)
			}
		})
	}
}

// TestLoad tests reading a script from disk.
func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "feed.yaml")
	if err := os.WriteFile(path, []byte(feedScript), 0o600); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(s.Steps) != 11 || s.Steps[2].Action != ActionScroll || s.Steps[2].Top != 3800 {
		t.Errorf("script = %+v", s)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, expected ErrNotExist", err)
	}
}
