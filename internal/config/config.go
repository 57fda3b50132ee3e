package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultMargin is the distance in pixels before the viewport at which
	// a candidate becomes eligible for classification.
	DefaultMargin = 200

	// DefaultRowHeight is the height FlowLayout gives each element when a
	// page carries no rendered offsets.
	DefaultRowHeight = 40

	// DefaultViewportHeight is the height of the initial viewport.
	DefaultViewportHeight = 900

	// DefaultTimeout bounds page loading and live sessions per page.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize is the number of pages scanned concurrently.
	DefaultBatchSize = 4

	// DefaultPollInterval is how often the live browser host collects
	// mutation records from the page.
	DefaultPollInterval = 500 * time.Millisecond

	// AppName is the application name used for XDG directory paths.
	AppName = "newsadvisor"

	// DefaultUserAgent identifies newsadvisor in HTTP requests.
	DefaultUserAgent = "newsadvisor/1.0 (+https://github.com/nao1215/newsadvisor)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for a newsadvisor run.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed down explicitly.
type Config struct {
	// Settings are the toggles every session starts with.
	Settings Settings

	// Margin is the scheduler proximity margin in pixels.
	Margin int

	// RowHeight is the FlowLayout row height in pixels.
	RowHeight int

	// ViewportHeight is the initial viewport height in pixels.
	ViewportHeight int

	// ScrollAll treats the whole page as visible, classifying every
	// candidate instead of only those near the initial viewport.
	ScrollAll bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogJSON writes log records as JSON lines instead of text.
	LogJSON bool

	// BatchSize is the number of concurrent page sessions.
	BatchSize int

	// Timeout bounds loading and the lifetime of live sessions.
	Timeout time.Duration

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .newsadvisor in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the contents of the configuration file, if any.
	File *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with
	// JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Targets are page URLs or file paths to scan.
	Targets []string

	// PageURL overrides the page location of file and stdin targets.
	PageURL string

	// DBDir is the directory holding the settings database.
	// Defaults to the XDG data directory (~/.local/share/newsadvisor).
	DBDir string

	// UseSettingsDB loads session settings from the settings database.
	UseSettingsDB bool

	// AdDomains extends the built-in ad-network list.
	AdDomains []string

	// WidgetSelectors extends the built-in recommendation-widget selectors.
	WidgetSelectors []string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// PollInterval is the live host mutation polling period.
	PollInterval time.Duration

	// Headful shows the browser window of the live host.
	Headful bool

	// Stealth applies stealth patches to the live host's tab.
	Stealth bool

	// BrowserURL connects the live host to a running browser instead of
	// launching one.
	BrowserURL string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Settings:       DefaultSettings(),
		Margin:         DefaultMargin,
		RowHeight:      DefaultRowHeight,
		ViewportHeight: DefaultViewportHeight,
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		PollInterval:   DefaultPollInterval,
		Stealth:        true,
	}
}

// XDGDataDir returns the XDG data directory for newsadvisor.
// On Linux: ~/.local/share/newsadvisor
// On macOS: ~/Library/Application Support/newsadvisor
// On Windows: %LOCALAPPDATA%\newsadvisor
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for newsadvisor.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for newsadvisor.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// SettingsDBDir returns DBDir or the XDG data directory.
func (c *Config) SettingsDBDir() string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return XDGDataDir()
}

// ApplyFile merges the configuration file into c. Values already set by
// flags are applied afterwards by the caller.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	if f.Settings != nil {
		c.Settings = *f.Settings
	}
	if len(f.AllowList) > 0 {
		hosts := append(append([]string{}, c.Settings.AllowList...), f.AllowList...)
		c.Settings.AllowList = ParseAllowList(strings.Join(hosts, ","))
	}
	if f.Margin != nil {
		c.Margin = *f.Margin
	}
	if f.ViewportHeight > 0 {
		c.ViewportHeight = f.ViewportHeight
	}
	if f.RowHeight > 0 {
		c.RowHeight = f.RowHeight
	}
	c.AdDomains = append(c.AdDomains, f.AdDomains...)
	c.WidgetSelectors = append(c.WidgetSelectors, f.WidgetSelectors...)
}

// Validate checks if the configuration is valid. It returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Margin < 0 {
		return ErrInvalidMargin
	}
	if c.ViewportHeight <= 0 {
		return ErrInvalidViewport
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
