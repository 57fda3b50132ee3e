package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url|file|-]...",
		Short: "Classify the content of news pages",
		Long: `Scan loads each page, runs an advisor session over it and reports every
link, frame and recommendation widget that was labeled News, Ad or
Sponsored.

Only candidates within the initial viewport (plus the margin) are
classified unless --scroll-all is given. Pages that carry
data-advisor-top offsets are placed by them; other pages are laid out
row by row.

Examples:
  # Scan a live page
  newsadvisor scan https://news.example.com/

  # Scan a saved page as if it were served from its original URL
  newsadvisor scan --page-url https://news.example.com/ page.html

  # Classify every candidate, not only the visible ones
  newsadvisor scan --scroll-all page.html

  # Scan a list of pages concurrently and write a Markdown report
  newsadvisor scan --list pages.txt --batch 8 -m -o report.md

  # Read the page from stdin
  curl -s https://news.example.com/ | newsadvisor scan --page-url https://news.example.com/ -`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"Read targets from a file, one per line")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent page sessions")
	cmd.Flags().BoolP("scroll-all", "a", false,
		"Treat the whole page as visible")

	addSessionFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildScanConfig creates a Config from the configuration sources and the
// scan flags.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applySessionFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ScrollAll, err = cmd.Flags().GetBool("scroll-all"); err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)
	list, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if list != "" {
		targets, err := readTargetList(list)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, targets...)
	}
	return cfg, nil
}

// runScan scans every target and writes the reports.
func runScan(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	if err := loadStoredSettings(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"scrollAll", cfg.ScrollAll,
		"enabled", cfg.Settings.Enabled,
	)

	var (
		reports []*model.PageReport
		err     error
	)
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		reports, err = runBatchScan(ctx, cfg, logger)
	} else {
		reports, err = runSequentialScan(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}

	return outputReports(cfg, stdout, reports)
}

// newScanPipeline creates the pipeline of one page session.
func newScanPipeline(cfg *config.Config, logger *slog.Logger, opts ...pipeline.DefaultPipelineOption) *pipeline.Pipeline {
	return pipeline.DefaultPipeline(cfg, []pipeline.Option{pipeline.WithLogger(logger)}, opts...)
}

// runSequentialScan scans targets one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]*model.PageReport, error) {
	reports := make([]*model.PageReport, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		job := pipeline.NewJob(target)
		job.PageURL = cfg.PageURL

		startTime := time.Now()
		if err := newScanPipeline(cfg, logger).Execute(ctx, job); err != nil {
			logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
		}
		logger.Debug("page scanned", "target", target, "elapsed", time.Since(startTime).Round(time.Millisecond))

		reports = append(reports, job.Report)
	}
	return reports, nil
}

// runBatchScan scans targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]*model.PageReport, error) {
	fmt.Fprintf(os.Stderr, "Scanning %d pages (concurrency: %d)...\n", len(cfg.Targets), cfg.BatchSize)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return newScanPipeline(cfg, logger) },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	done := 0
	reports := make([]*model.PageReport, len(cfg.Targets))
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(r *model.PageReport, index int) {
		mu.Lock()
		defer mu.Unlock()
		done++
		reports[index] = r
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", done, len(cfg.Targets), cfg.Targets[index], scanStatus(r))
	})
	return reports, err
}

// scanStatus is the one-word progress status of a report.
func scanStatus(r *model.PageReport) string {
	switch {
	case r.Error != "":
		return "failed"
	case r.Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("%d annotations", len(r.Annotations))
	}
}
