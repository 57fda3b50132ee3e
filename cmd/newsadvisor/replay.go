package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/pipeline"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/nao1215/newsadvisor/internal/replay"
	"github.com/spf13/cobra"
)

// NewReplayCmd creates the replay command.
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml> <url|file|->",
		Short: "Replay scripted page changes against a session",
		Long: `Replay loads a page, starts a session over it and plays a YAML script of
mutations, scrolls, settings changes and pointer events against it.
Each step runs to completion before the next, so a replay always
produces the same annotations.

Script example:
  page: https://news.example.com/
  steps:
    - action: insert
      xpath: /html/body/main
      html: <article><a href="https://ad.doubleclick.net/c">Deals</a></article>
    - action: scroll
      top: 2000
    - action: settings
      set: {focus_mode: "true"}
    - action: probe
      selector: "#sidebar a"

Examples:
  newsadvisor replay feed.yaml page.html
  newsadvisor replay --steps feed.yaml page.html`,
		Args: cobra.ExactArgs(2),
		RunE: runReplayCmd,
	}

	cmd.Flags().Bool("steps", false, "Print the outcome of every step")
	addSessionFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runReplayCmd executes the replay command.
func runReplayCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySessionFlags(cmd, cfg); err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	showSteps, err := cmd.Flags().GetBool("steps")
	if err != nil {
		return err
	}

	script, err := replay.Load(args[0])
	if err != nil {
		return err
	}
	cfg.Targets = []string{args[1]}
	if cfg.PageURL == "" {
		cfg.PageURL = script.Page
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext()
	defer cancel()

	return runReplay(ctx, cfg, script, showSteps, cmd.OutOrStdout(), logger)
}

// runReplay plays script against a session over the configured target.
func runReplay(ctx context.Context, cfg *config.Config, script *replay.Script, showSteps bool, stdout io.Writer, logger *slog.Logger) error {
	if err := loadStoredSettings(ctx, cfg, logger); err != nil {
		return err
	}

	job := pipeline.NewJob(cfg.Targets[0])
	job.PageURL = cfg.PageURL

	p := pipeline.DefaultPipeline(cfg, []pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineListener(present.LogListener{Logger: logger}),
	)
	if err := p.Execute(ctx, job); err != nil {
		return err
	}

	player := replay.NewPlayer(replay.WithLogger(logger))
	results, err := player.Play(ctx, job.Session, script)
	if err != nil {
		return err
	}
	if err := pipeline.NewReportStep().Do(ctx, job); err != nil {
		return err
	}

	if showSteps {
		if err := writeStepResults(stdout, results); err != nil {
			return err
		}
	}
	return outputReports(cfg, stdout, []*model.PageReport{job.Report})
}

// writeStepResults prints one table row per replayed step.
func writeStepResults(w io.Writer, results []replay.StepResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			string(r.Action),
			strconv.Itoa(r.Inserted),
			strconv.Itoa(r.Removed),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Fired),
			strconv.Itoa(r.Annotated),
			stepNote(r),
		})
	}
	md := markdown.NewMarkdown(w)
	md.Table(markdown.TableSet{
		Header: []string{"STEP", "ACTION", "INSERTED", "REMOVED", "FAILED", "FIRED", "ANNOTATED", "NOTE"},
		Rows:   rows,
	})
	md.PlainText("")
	return md.Build()
}

func stepNote(r replay.StepResult) string {
	switch {
	case r.Missing:
		return "target not found"
	case r.Diagnosis != nil:
		return fmt.Sprintf("%s via %s", r.Diagnosis.Result.Type(), r.Diagnosis.Rule)
	case r.Handled:
		return "handled"
	default:
		return ""
	}
}
