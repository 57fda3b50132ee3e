package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/model"
	"golang.org/x/net/html"
)

// TestNewProbeCmd tests the probe command flags.
func TestNewProbeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewProbeCmd()
	for _, name := range []string{"selector", "xpath", "margin", "page-url", "settings-db"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if cmd.Flags().ShorthandLookup("s") == nil || cmd.Flags().ShorthandLookup("x") == nil {
		t.Error("expected -s and -x shorthands")
	}
}

// TestProbeCmdRequiresOneLocator tests the --selector/--xpath check.
func TestProbeCmdRequiresOneLocator(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
	}{
		{"neither", nil},
		{"both", []string{"--selector", "#ad", "--xpath", "/html/body"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			page := writeFile(t, dir, "page.html", frontPage)
			args := append(isolatedArgs(t, dir), "probe", page)
			_, err := runCLI(t, append(args, tc.args...)...)
			if err == nil || !strings.Contains(err.Error(), "exactly one") {
				t.Errorf("expected locator error, got %v", err)
			}
		})
	}
}

// TestRunProbe tests diagnoses of saved page elements.
func TestRunProbe(t *testing.T) {
	t.Parallel()

	newCfg := func(t *testing.T) *config.Config {
		t.Helper()
		cfg := config.NewConfig()
		cfg.Targets = []string{writeFile(t, t.TempDir(), "page.html", frontPage)}
		cfg.PageURL = "https://news.example.com/"
		return cfg
	}

	t.Run("selector", func(t *testing.T) {
		t.Parallel()
		var out strings.Builder
		if err := runProbe(context.Background(), newCfg(t), "#ad", "", &out, quietLogger()); err != nil {
			t.Fatalf("runProbe() error = %v", err)
		}
		for _, want := range []string{"DIAGNOSIS", "Element:", "Rule:", "Processed:  true"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("xpath of an unprocessed link", func(t *testing.T) {
		t.Parallel()
		var out strings.Builder
		if err := runProbe(context.Background(), newCfg(t), "", "/html/body/main/article[3]/a", &out, quietLogger()); err != nil {
			t.Fatalf("runProbe() error = %v", err)
		}
		if !strings.Contains(out.String(), "Processed:  false") {
			t.Errorf("expected the far link to be unprocessed:\n%s", out.String())
		}
	})

	t.Run("not classifiable", func(t *testing.T) {
		t.Parallel()
		var out strings.Builder
		if err := runProbe(context.Background(), newCfg(t), "main", "", &out, quietLogger()); err != nil {
			t.Fatalf("runProbe() error = %v", err)
		}
		if !strings.Contains(out.String(), "is not inside a link, frame or widget") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("no such element", func(t *testing.T) {
		t.Parallel()
		err := runProbe(context.Background(), newCfg(t), "#nothing", "", &strings.Builder{}, quietLogger())
		if !errors.Is(err, errNoElement) {
			t.Errorf("expected errNoElement, got %v", err)
		}
	})
}

// TestFindElement tests element lookup by selector and path.
func TestFindElement(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader(frontPage))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	testCases := []struct {
		name     string
		selector string
		xpath    string
		wantID   string
		wantErr  error
	}{
		{"selector", "#partner", "", "partner", nil},
		{"xpath", "", "/html/body/main/article[2]/a", "ad", nil},
		{"missing selector", ".absent", "", "", errNoElement},
		{"missing xpath", "", "/html/body/main/article[9]", "", errNoElement},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n, err := findElement(doc, tc.selector, tc.xpath)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("findElement() error = %v", err)
			}
			if id := attr(n, "id"); id != tc.wantID {
				t.Errorf("found id %q, want %q", id, tc.wantID)
			}
		})
	}

	t.Run("invalid selector", func(t *testing.T) {
		t.Parallel()
		if _, err := findElement(doc, "a[[", ""); err == nil || errors.Is(err, errNoElement) {
			t.Errorf("expected a compile error, got %v", err)
		}
	})
}

// TestWriteDiagnosis tests the diagnosis layout.
func TestWriteDiagnosis(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	writeDiagnosis(&out, engine.Diagnosis{
		Element: "a#ad",
		Kind:    model.KindLink,
		Skipped: true,
		InZone:  true,
		Rule:    "allow-list",
	})
	for _, want := range []string{"Element:    a#ad", "Result:     skipped", "In zone:    true", "Rule:       allow-list"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
