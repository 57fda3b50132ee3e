package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/loader"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/nao1215/newsadvisor/internal/replay"
	"github.com/nao1215/newsadvisor/internal/scheduler"
	"golang.org/x/net/html"
)

const frontPage = `<html><head><title>Front Page</title></head><body>
<main>
	<article data-advisor-top="0"><a id="story" href="/world/2026/story">A long headline about the world today</a></article>
	<article data-advisor-top="100"><a id="ad" href="https://ad.doubleclick.net/clk?id=1">Great deals on shoes today</a></article>
	<article data-advisor-top="9000"><a id="far" href="/world/2026/far">Another long headline further down</a></article>
	<div data-advisor-top="200" class="partner-box"><a id="p" href="/partner/x">Partner content from our sponsor</a></div>
</main>
</body></html>`

func writePage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}
	return path
}

func loadedJob(t *testing.T) *Job {
	t.Helper()
	job := NewJob(writePage(t, frontPage))
	job.PageURL = "https://news.example.com/"
	if err := NewLoadStep(loader.New(loader.WithLogger(quiet()))).Do(context.Background(), job); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return job
}

// TestLoadStep tests page loading.
func TestLoadStep(t *testing.T) {
	t.Parallel()

	job := loadedJob(t)
	if job.Page == nil || job.Page.Title != "Front Page" || job.Page.URL != "https://news.example.com/" {
		t.Errorf("page = %+v", job.Page)
	}

	job = NewJob(writePage(t, frontPage))
	step := NewLoadStep(loader.New(loader.WithLogger(quiet())), WithDefaultPageURL("https://news.example.com/world"))
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if job.Page.URL != "https://news.example.com/world" {
		t.Errorf("default page url not applied: %q", job.Page.URL)
	}

	missing := NewJob(filepath.Join(t.TempDir(), "missing.html"))
	if err := NewLoadStep(loader.New()).Do(context.Background(), missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Do() error = %v", err)
	}
}

// TestSessionStep tests session creation and the initial scan.
func TestSessionStep(t *testing.T) {
	t.Parallel()

	t.Run("classifies the initial viewport", func(t *testing.T) {
		t.Parallel()

		job := loadedJob(t)
		rec := present.NewRecorder()
		step := NewSessionStep(
			WithSessionLogger(quiet()),
			WithSessionListener(rec),
			WithSessionViewportHeight(500),
			WithSessionMargin(0),
		)
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if job.Session == nil || !job.Session.Initialized() {
			t.Fatal("expected an initialized session")
		}
		if len(rec.Annotations()) < 2 {
			t.Errorf("expected the visible links to be annotated, got %d", len(rec.Annotations()))
		}
		if !job.Session.Processed(findID(t, job, "ad")) || job.Session.Processed(findID(t, job, "far")) {
			t.Error("expected only the visible candidates to be processed")
		}
		if job.Session.Pending() != 1 {
			t.Errorf("Pending() = %d", job.Session.Pending())
		}
	})

	t.Run("extra selectors and domains", func(t *testing.T) {
		t.Parallel()

		job := loadedJob(t)
		step := NewSessionStep(
			WithSessionLogger(quiet()),
			WithSessionWidgetSelectors(".partner-box"),
			WithSessionAdDomains("example.com"),
			WithSessionViewportHeight(500),
		)
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(job.Session.Annotations()) == 0 {
			t.Error("expected annotations")
		}
	})

	t.Run("invalid selector", func(t *testing.T) {
		t.Parallel()

		job := loadedJob(t)
		if err := NewSessionStep(WithSessionWidgetSelectors("div[[")).Do(context.Background(), job); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("requires a page", func(t *testing.T) {
		t.Parallel()

		if err := NewSessionStep().Do(context.Background(), NewJob("x")); !errors.Is(err, ErrNoPage) {
			t.Errorf("Do() error = %v", err)
		}
	})

	t.Run("site viewport override", func(t *testing.T) {
		t.Parallel()

		job := loadedJob(t)
		job.Page.ViewportHeight = 20000
		if err := NewSessionStep(WithSessionLogger(quiet())).Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if job.Session.Pending() != 0 {
			t.Error("expected the tall viewport to cover the whole page")
		}
	})
}

// TestScrollReplayAndReportSteps tests the steps that follow the initial
// scan.
func TestScrollReplayAndReportSteps(t *testing.T) {
	t.Parallel()

	job := loadedJob(t)
	if err := NewSessionStep(WithSessionLogger(quiet()), WithSessionViewportHeight(500)).Do(context.Background(), job); err != nil {
		t.Fatalf("session failed: %v", err)
	}

	script, err := replay.Parse([]byte(`
steps:
  - action: insert
    xpath: /html/body/main
    html: <article data-advisor-top="50"><a id="late" href="https://taboola.com/r?x=1">Sponsored stories you may like</a></article>
`))
	if err != nil {
		t.Fatalf("replay.Parse() error = %v", err)
	}
	if err := NewReplayStep(script, quiet()).Do(context.Background(), job); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !job.Session.Processed(findID(t, job, "late")) {
		t.Error("expected the replayed link to be processed")
	}

	if err := NewScrollStep(scheduler.Everything()).Do(context.Background(), job); err != nil {
		t.Fatalf("scroll failed: %v", err)
	}
	if job.Session.Pending() != 0 {
		t.Error("expected every candidate to be processed")
	}

	if err := NewReportStep().Do(context.Background(), job); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if job.Report == nil || job.Report.Title != "Front Page" || job.Report.Hostname != "news.example.com" {
		t.Errorf("report = %+v", job.Report)
	}
	if job.Report.Count(model.TypeAd) == 0 {
		t.Errorf("expected an ad in the report: %+v", job.Report.Stats)
	}

	for _, step := range []Step{NewReplayStep(script, quiet()), NewScrollStep(scheduler.Everything()), NewReportStep()} {
		if err := step.Do(context.Background(), NewJob("x")); !errors.Is(err, ErrNoSession) {
			t.Errorf("%s without session: %v", step.Name(), err)
		}
	}
}

func findID(t *testing.T, job *Job, id string) *html.Node {
	t.Helper()
	n := dom.Find(job.Page.Doc, func(n *html.Node) bool { return dom.Attr(n, "id") == id })
	if n == nil {
		t.Fatalf("element #%s not found", id)
	}
	return n
}

// TestDefaultPipeline tests the pipeline built from a configuration.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step composition", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		if got := strings.Join(DefaultPipeline(cfg, nil).StepNames(), ","); got != "load,session,report" {
			t.Errorf("steps = %s", got)
		}

		cfg.ScrollAll = true
		p := DefaultPipeline(cfg, nil, WithPipelineScript(&replay.Script{}))
		if got := strings.Join(p.StepNames(), ","); got != "load,session,replay,scroll,report" {
			t.Errorf("steps = %s", got)
		}
	})

	t.Run("remote page end to end", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, frontPage)
		}))
		defer server.Close()

		cfg := config.NewConfig()
		cfg.ScrollAll = true
		rec := present.NewRecorder()
		p := DefaultPipeline(cfg, []Option{WithLogger(quiet())},
			WithPipelineClient(server.Client()),
			WithPipelineListener(rec),
		)

		job := NewJob(server.URL + "/")
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if job.Report == nil || job.Report.Error != "" || job.Report.Pending != 0 {
			t.Fatalf("report = %+v", job.Report)
		}
		if len(rec.Annotations()) != len(job.Report.Annotations) {
			t.Error("listener and report disagree")
		}
	})

	t.Run("settings override keeps the advisor off", func(t *testing.T) {
		t.Parallel()

		off := config.DefaultSettings()
		off.Enabled = false
		p := DefaultPipeline(config.NewConfig(), []Option{WithLogger(quiet())},
			WithPipelineSettings(off),
			WithPipelineStdin(strings.NewReader(frontPage)),
		)

		job := NewJob(loader.StdinTarget)
		job.PageURL = "https://news.example.com/"
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !job.Report.Disabled || job.Report.HasAnnotations() {
			t.Errorf("report = %+v", job.Report)
		}
	})
}
