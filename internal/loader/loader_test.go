package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/dom"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
	<title>  World
	News </title>
	<link rel="stylesheet canonical" href="/world">
	<meta name="Description" content=" Today's headlines ">
</head>
<body><main><a href="/story">Story</a></main></body>
</html>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestParse tests metadata extraction.
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("collects head metadata", func(t *testing.T) {
		t.Parallel()

		p, err := Parse(strings.NewReader(samplePage), "https://news.example.com/world/today")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if p.Title != "World News" {
			t.Errorf("Title = %q", p.Title)
		}
		if p.Lang != "en" {
			t.Errorf("Lang = %q", p.Lang)
		}
		if p.Canonical != "https://news.example.com/world" {
			t.Errorf("Canonical = %q", p.Canonical)
		}
		if p.Description != "Today's headlines" {
			t.Errorf("Description = %q", p.Description)
		}
		if dom.Resolve(p.Doc, "/html/body/main/a") == nil {
			t.Error("expected body content in the document")
		}
	})

	t.Run("ignores metadata in body", func(t *testing.T) {
		t.Parallel()

		p, err := Parse(strings.NewReader(`<body><svg><title>icon</title></svg></body>`), "")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if p.Title != "" {
			t.Errorf("Title = %q, expected empty", p.Title)
		}
	})

	t.Run("rejects bad page url", func(t *testing.T) {
		t.Parallel()

		if _, err := Parse(strings.NewReader(samplePage), "http://[::1"); err == nil {
			t.Error("expected error")
		}
	})
}

// TestLoadFile tests loading from the filesystem.
func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte(samplePage), 0o600); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}

	t.Run("defaults to a file url", func(t *testing.T) {
		t.Parallel()

		p, err := New(WithLogger(quietLogger())).Load(context.Background(), path, "")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !strings.HasPrefix(p.URL, "file://") || !strings.HasSuffix(p.URL, "/page.html") {
			t.Errorf("URL = %q", p.URL)
		}
		if p.Source != path || p.Size != int64(len(samplePage)) || p.Truncated {
			t.Errorf("unexpected page %+v", p)
		}
	})

	t.Run("page url override", func(t *testing.T) {
		t.Parallel()

		p, err := New().Load(context.Background(), path, "https://news.example.com/world")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if p.URL != "https://news.example.com/world" || p.Canonical != "https://news.example.com/world" {
			t.Errorf("unexpected page %+v", p)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := New().Load(context.Background(), filepath.Join(dir, "missing.html"), "")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load() error = %v, expected ErrNotExist", err)
		}
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()

		p, err := New(WithMaxBodySize(32), WithLogger(quietLogger())).Load(context.Background(), path, "")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !p.Truncated || p.Size != 32 {
			t.Errorf("Truncated = %v, Size = %d", p.Truncated, p.Size)
		}
	})
}

// TestLoadStdin tests the "-" target.
func TestLoadStdin(t *testing.T) {
	t.Parallel()

	l := New(WithStdin(strings.NewReader(samplePage)))
	p, err := l.Load(context.Background(), StdinTarget, "https://news.example.com/")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Title != "World News" || p.URL != "https://news.example.com/" {
		t.Errorf("unexpected page %+v", p)
	}
}

// TestLoadEmptyTarget tests the empty target error.
func TestLoadEmptyTarget(t *testing.T) {
	t.Parallel()

	if _, err := New().Load(context.Background(), "  ", ""); !errors.Is(err, ErrEmptyTarget) {
		t.Errorf("Load() error = %v, expected ErrEmptyTarget", err)
	}
}

// TestLoadRemote tests HTTP loading.
func TestLoadRemote(t *testing.T) {
	t.Parallel()

	t.Run("sends user agent and site options", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, samplePage)
		}))
		defer server.Close()

		sites := &config.File{
			Defaults: config.SiteConfig{Headers: map[string]string{"X-Consent": "granted"}},
			Sites: map[string]config.SiteConfig{
				"127.0.0.1": {Cookie: "consent=yes", ViewportHeight: 700},
			},
		}
		l := New(WithClient(server.Client()), WithUserAgent("test-agent"), WithSites(sites), WithLogger(quietLogger()))
		p, err := l.Load(context.Background(), server.URL+"/world", "ignored")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		h := <-headers
		gotUA, gotCookie, gotHeader := h.Get("User-Agent"), h.Get("Cookie"), h.Get("X-Consent")
		if gotUA != "test-agent" || gotCookie != "consent=yes" || gotHeader != "granted" {
			t.Errorf("request headers: ua=%q cookie=%q header=%q", gotUA, gotCookie, gotHeader)
		}
		if p.URL != server.URL+"/world" || p.StatusCode != http.StatusOK || p.ViewportHeight != 700 {
			t.Errorf("unexpected page %+v", p)
		}
	})

	t.Run("uses the final url after redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusFound)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, samplePage)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		p, err := New(WithClient(server.Client())).Load(context.Background(), server.URL+"/old", "")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if p.URL != server.URL+"/new" {
			t.Errorf("URL = %q", p.URL)
		}
	})

	t.Run("error status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := New(WithClient(server.Client())).Load(context.Background(), server.URL, "")
		if !errors.Is(err, ErrHTTPStatus) {
			t.Errorf("Load() error = %v, expected ErrHTTPStatus", err)
		}
	})

	t.Run("non html content", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		_, err := New(WithClient(server.Client())).Load(context.Background(), server.URL, "")
		if !errors.Is(err, ErrNotHTML) {
			t.Errorf("Load() error = %v, expected ErrNotHTML", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, samplePage)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := New(WithClient(server.Client())).Load(ctx, server.URL, ""); !errors.Is(err, context.Canceled) {
			t.Errorf("Load() error = %v, expected context.Canceled", err)
		}
	})
}

// TestIsRemote tests target classification.
func TestIsRemote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   bool
	}{
		{"https://news.example.com/", true},
		{"HTTP://news.example.com/", true},
		{"page.html", false},
		{"-", false},
		{"ftp://example.com/a.html", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()
			if got := IsRemote(tt.target); got != tt.want {
				t.Errorf("IsRemote(%q) = %v, expected %v", tt.target, got, tt.want)
			}
		})
	}
}
