package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/dom"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/log"
	"github.com/nao1215/newsadvisor/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

// errNoElement is returned when the probed element does not exist.
var errNoElement = errors.New("no element matches")

// NewProbeCmd creates the probe command.
func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <url|file|-> (--selector css | --xpath path)",
		Short: "Explain how an element would be classified",
		Long: `Probe loads a page and diagnoses the nearest classifiable element at or
above the given element, the way a modifier-click does in a live
session. The page and the session are left untouched.

Examples:
  newsadvisor probe page.html --selector "#sidebar a"
  newsadvisor probe https://news.example.com/ --xpath /html/body/main/article[3]/a`,
		Args: cobra.ExactArgs(1),
		RunE: runProbeCmd,
	}

	cmd.Flags().StringP("selector", "s", "", "CSS selector of the element")
	cmd.Flags().StringP("xpath", "x", "", "Absolute element path of the element")
	addSessionFlags(cmd)

	return cmd
}

// runProbeCmd executes the probe command.
func runProbeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySessionFlags(cmd, cfg); err != nil {
		return err
	}
	selector, err := cmd.Flags().GetString("selector")
	if err != nil {
		return err
	}
	xpath, err := cmd.Flags().GetString("xpath")
	if err != nil {
		return err
	}
	if (selector == "") == (xpath == "") {
		return errors.New("specify exactly one of --selector and --xpath")
	}

	cfg.Targets = args
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Diagnoses are logged at Info, which the default level hides.
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := log.NewLevelLogger(os.Stderr, level)

	ctx, cancel := signalContext()
	defer cancel()

	return runProbe(ctx, cfg, selector, xpath, cmd.OutOrStdout(), logger)
}

// runProbe diagnoses the element named by selector or xpath.
func runProbe(ctx context.Context, cfg *config.Config, selector, xpath string, stdout io.Writer, logger *slog.Logger) error {
	if err := loadStoredSettings(ctx, cfg, logger); err != nil {
		return err
	}

	job := pipeline.NewJob(cfg.Targets[0])
	job.PageURL = cfg.PageURL
	if err := pipeline.DefaultPipeline(cfg, []pipeline.Option{pipeline.WithLogger(logger)}).Execute(ctx, job); err != nil {
		return err
	}

	target, err := findElement(job.Session.Document(), selector, xpath)
	if err != nil {
		return err
	}

	d, ok := job.Session.HandlePointer(engine.PointerEvent{
		Kind:     engine.PointerClick,
		Target:   target,
		Modifier: true,
	})
	if !ok {
		fmt.Fprintf(stdout, "%s is not inside a link, frame or widget\n", dom.Describe(target))
		return nil
	}
	writeDiagnosis(stdout, d)
	return nil
}

// findElement resolves a CSS selector or an element path.
func findElement(doc *html.Node, selector, xpath string) (*html.Node, error) {
	if xpath != "" {
		if n := dom.Resolve(doc, xpath); n != nil {
			return n, nil
		}
		return nil, fmt.Errorf("%w %s", errNoElement, xpath)
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	if n := cascadia.Query(doc, sel); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w %s", errNoElement, selector)
}

// writeDiagnosis prints a diagnosis in the style of the text report.
func writeDiagnosis(w io.Writer, d engine.Diagnosis) {
	fmt.Fprintln(w, "DIAGNOSIS")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Element:    %s\n", d.Element)
	fmt.Fprintf(w, "Kind:       %s\n", d.Kind)
	fmt.Fprintf(w, "Decision:   %s\n", d.Decision)
	if d.Skipped {
		fmt.Fprintln(w, "Result:     skipped")
	} else {
		fmt.Fprintf(w, "Result:     %s\n", d.Result.Type().Label())
	}
	fmt.Fprintf(w, "Rule:       %s\n", d.Rule)
	fmt.Fprintf(w, "Badge at:   %s\n", d.Anchor)
	fmt.Fprintf(w, "In zone:    %t\n", d.InZone)
	fmt.Fprintf(w, "Processed:  %t\n", d.Processed)
	if details := d.Result.Details(); len(details) > 0 {
		fmt.Fprintln(w, "Evidence:")
		for _, line := range details {
			fmt.Fprintf(w, "  - %s\n", line)
		}
	}
}
