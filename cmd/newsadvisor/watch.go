package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/newsadvisor/internal/browser"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/pipeline"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Classify a live page in a browser as it changes",
		Long: `Watch opens the page in Chrome, classifies what is near the viewport and
keeps classifying as content is inserted and the page is scrolled.
Badges are mirrored into the page, so with --headful they can be seen
while browsing.

The session ends after --duration, or on Ctrl+C, and the report is
written.

Examples:
  # Watch for one minute in a visible browser window
  newsadvisor watch --headful --duration 1m https://news.example.com/

  # Use a running Chrome started with --remote-debugging-port
  newsadvisor watch --browser-url ws://127.0.0.1:9222/devtools/browser/<id> https://news.example.com/

  # Apply "newsadvisor settings set" changes while watching
  newsadvisor watch --settings-db https://news.example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runWatchCmd,
	}

	cmd.Flags().DurationP("duration", "d", 0,
		"Stop watching after this long (default: until interrupted)")
	cmd.Flags().Bool("headful", false, "Show the browser window")
	cmd.Flags().Bool("no-stealth", false, "Do not apply stealth patches to the tab")
	cmd.Flags().String("browser-url", "", "DevTools WebSocket URL of a running browser")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval,
		"How often page changes are collected")

	addSessionFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// watchOptions are the watch flags that are not part of config.Config.
type watchOptions struct {
	duration time.Duration
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildWatchConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext()
	defer cancel()

	return runWatch(ctx, cfg, opts, cmd.OutOrStdout(), logger)
}

// buildWatchConfig creates a Config from the configuration sources and
// the watch flags.
func buildWatchConfig(cmd *cobra.Command, args []string) (*config.Config, watchOptions, error) {
	var opts watchOptions

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, opts, err
	}
	if err := applySessionFlags(cmd, cfg); err != nil {
		return nil, opts, err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, opts, err
	}

	flags := cmd.Flags()
	if opts.duration, err = flags.GetDuration("duration"); err != nil {
		return nil, opts, err
	}
	if cfg.Headful, err = flags.GetBool("headful"); err != nil {
		return nil, opts, err
	}
	noStealth, err := flags.GetBool("no-stealth")
	if err != nil {
		return nil, opts, err
	}
	cfg.Stealth = !noStealth
	if flags.Changed("browser-url") {
		if cfg.BrowserURL, err = flags.GetString("browser-url"); err != nil {
			return nil, opts, err
		}
	}
	if cfg.PollInterval, err = flags.GetDuration("poll-interval"); err != nil {
		return nil, opts, err
	}

	cfg.Targets = args
	return cfg, opts, nil
}

// runWatch runs a live session until the duration elapses or ctx is done.
func runWatch(ctx context.Context, cfg *config.Config, opts watchOptions, stdout io.Writer, logger *slog.Logger) error {
	fileAllowList := cfg.Settings.AllowList
	if err := loadStoredSettings(ctx, cfg, logger); err != nil {
		return err
	}

	host := browser.NewHost(
		browser.WithHeadful(cfg.Headful),
		browser.WithStealth(cfg.Stealth),
		browser.WithBrowserURL(cfg.BrowserURL),
		browser.WithPollInterval(cfg.PollInterval),
		browser.WithNavigationTimeout(cfg.Timeout),
		browser.WithLogger(logger),
	)
	if err := host.Start(ctx); err != nil {
		return err
	}
	defer host.Close()

	target := cfg.Targets[0]
	tab, err := host.Open(ctx, target)
	if err != nil {
		return err
	}
	defer tab.Close()

	page, err := tab.Snapshot(ctx)
	if err != nil {
		return err
	}

	job := pipeline.NewJob(target)
	job.Page = page
	step := pipeline.NewSessionStepFromConfig(cfg,
		pipeline.WithSessionListener(present.Listeners{present.LogListener{Logger: logger}, tab}),
		pipeline.WithSessionLogger(logger),
	)
	if err := step.Do(ctx, job); err != nil {
		return err
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.duration)
	}
	defer cancel()

	var settings <-chan config.Settings
	if cfg.UseSettingsDB {
		db, err := openSettingsDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		settings = withAllowList(runCtx, db.Watch(runCtx, cfg.PollInterval, cfg.Settings, logger), fileAllowList)
	}

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)...\n", target)
	err = tab.Stream(runCtx, job.Session, settings)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if err := pipeline.NewReportStep().Do(ctx, job); err != nil {
		return err
	}
	job.Session.Teardown()
	return outputReports(cfg, stdout, []*model.PageReport{job.Report})
}

// withAllowList adds hosts to the allow-list of every settings update, so
// that hosts allowed in the configuration file stay allowed after a
// database change. Updates equal to the previous one are dropped.
func withAllowList(ctx context.Context, in <-chan config.Settings, hosts []string) <-chan config.Settings {
	out := make(chan config.Settings)
	go func() {
		defer close(out)
		var last *config.Settings
		for s := range in {
			s.AllowList = config.ParseAllowList(strings.Join(slices.Concat(s.AllowList, hosts), ","))
			if last != nil && last.Equal(s) {
				continue
			}
			last = &s
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
