package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/database"
	"github.com/nao1215/newsadvisor/internal/log"
	"github.com/nao1215/newsadvisor/internal/model"
	"github.com/nao1215/newsadvisor/internal/report"
	"github.com/spf13/cobra"
)

// flagString returns a string flag of cmd or of the root command, or ""
// when neither defines it.
func flagString(cmd *cobra.Command, name string) string {
	if v, err := cmd.Flags().GetString(name); err == nil {
		return v
	}
	if v, err := cmd.Root().PersistentFlags().GetString(name); err == nil {
		return v
	}
	return ""
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the secure stderr logger and makes it the default.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	if cfg.LogJSON {
		logger = log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig creates a Config from defaults, the configuration file and
// the environment, in that order. Command flags are applied by the
// caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.ConfigFilePath = flagString(cmd, "config")
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ConfigFilePath = configPath
		cfg.ApplyFile(f)
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.File = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	var envFiles []string
	if envFile := flagString(cmd, "env-file"); envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	if err := config.LoadEnv(cfg, envFiles...); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if dbDir := flagString(cmd, "db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}
	if getVerboseFlag(cmd) {
		cfg.Verbose = true
	}
	if logJSON, err := cmd.Root().PersistentFlags().GetBool("log-json"); err == nil && logJSON {
		cfg.LogJSON = true
	}
	return cfg, nil
}

// addSessionFlags registers the flags shared by commands that run a
// session.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("margin", config.DefaultMargin,
		"Distance in pixels before the viewport at which candidates are classified")
	cmd.Flags().Int("viewport-height", config.DefaultViewportHeight,
		"Initial viewport height in pixels")
	cmd.Flags().Int("row-height", config.DefaultRowHeight,
		"Row height used to estimate positions of pages without offsets")
	cmd.Flags().String("page-url", "",
		"Page location for file and stdin targets (default: file:// URL)")
	cmd.Flags().Bool("settings-db", false,
		"Read session settings from the settings database")
	cmd.Flags().StringSlice("ad-domain", nil,
		"Extra ad-network domain (repeatable)")
	cmd.Flags().StringSlice("widget-selector", nil,
		"Extra recommendation-widget CSS selector (repeatable)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for loading each page")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for remote pages")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of bytes read from a page")
}

// applySessionFlags copies the session flags the user set into cfg, so
// that values from the configuration file survive unset flags.
func applySessionFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("margin") {
		if cfg.Margin, err = flags.GetInt("margin"); err != nil {
			return err
		}
	}
	if flags.Changed("viewport-height") {
		if cfg.ViewportHeight, err = flags.GetInt("viewport-height"); err != nil {
			return err
		}
	}
	if flags.Changed("row-height") {
		if cfg.RowHeight, err = flags.GetInt("row-height"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return err
		}
	}
	if cfg.PageURL, err = flags.GetString("page-url"); err != nil {
		return err
	}
	if cfg.UseSettingsDB, err = flags.GetBool("settings-db"); err != nil {
		return err
	}

	domains, err := flags.GetStringSlice("ad-domain")
	if err != nil {
		return err
	}
	cfg.AdDomains = append(cfg.AdDomains, domains...)

	selectors, err := flags.GetStringSlice("widget-selector")
	if err != nil {
		return err
	}
	cfg.WidgetSelectors = append(cfg.WidgetSelectors, selectors...)
	return nil
}

// openSettingsDB opens the settings database of cfg.
func openSettingsDB(cfg *config.Config) (*database.SettingsDB, error) {
	db, err := database.Open(cfg.SettingsDBDir(), database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	return db, nil
}

// loadStoredSettings replaces cfg.Settings with the settings database
// contents when cfg.UseSettingsDB is set. Hosts allowed in the
// configuration file stay allowed.
func loadStoredSettings(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.UseSettingsDB {
		return nil
	}
	db, err := openSettingsDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	stored.AllowList = config.ParseAllowList(strings.Join(append(stored.AllowList, cfg.Settings.AllowList...), ","))
	cfg.Settings = stored
	logger.Debug("settings loaded from database", slog.String("path", db.Path()))
	return nil
}

// addReportFlags registers the report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// applyReportFlags copies the report flags into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	return nil
}

// newReportWriter returns the writer selected by cfg for output.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReports writes reports in the format selected by cfg. A single
// report is written on its own; several are written as a batch. When
// cfg.ReportFile is set the report goes to that file and a text summary
// to stdout.
func outputReports(cfg *config.Config, stdout io.Writer, reports []*model.PageReport) error {
	var (
		w        report.Writer
		buffered *bufio.Writer
	)
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports can carry page URLs with session parameters.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		buffered = bufio.NewWriter(f)

		w = report.NewMultiWriter(newReportWriter(cfg, buffered), report.NewSimpleWriter(stdout))
	} else {
		w = newReportWriter(cfg, stdout)
	}

	var err error
	if len(reports) == 1 {
		_, err = w.Write(reports[0])
	} else {
		_, err = w.WriteBatch(reports)
	}
	if err != nil {
		return err
	}
	if buffered != nil {
		return buffered.Flush()
	}
	return nil
}

// readTargetList reads one target per line. Blank lines and lines
// starting with # are ignored.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	targets := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}
