package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/newsadvisor/internal/config"
)

// StdinTarget selects standard input as the page source.
const StdinTarget = "-"

// Loader reads and parses pages.
type Loader struct {
	// client performs remote requests.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the number of bytes read from any source.
	maxBodySize int64

	// sites supplies per-host cookies and headers. May be nil.
	sites *config.File

	// stdin is read for the "-" target.
	stdin io.Reader

	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithClient sets the HTTP client used for remote pages.
func WithClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = c
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of bytes read per page.
// Zero or negative values keep the default.
func WithMaxBodySize(size int64) LoaderOption {
	return func(l *Loader) {
		if size > 0 {
			l.maxBodySize = size
		}
	}
}

// WithSites sets the configuration file whose site entries supply cookies
// and headers.
func WithSites(f *config.File) LoaderOption {
	return func(l *Loader) {
		l.sites = f
	}
}

// WithStdin replaces standard input as the source of the "-" target.
func WithStdin(r io.Reader) LoaderOption {
	return func(l *Loader) {
		l.stdin = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader with defaults from the config package.
func New(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:      &http.Client{Timeout: config.DefaultTimeout},
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		stdin:       os.Stdin,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsRemote reports whether target is an http(s) URL.
func IsRemote(target string) bool {
	lower := strings.ToLower(strings.TrimSpace(target))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load reads target and parses it. pageURL overrides the page location of
// file and stdin targets; for remote targets the final URL after
// redirects is used and pageURL is ignored.
func (l *Loader) Load(ctx context.Context, target, pageURL string) (*Page, error) {
	target = strings.TrimSpace(target)
	switch {
	case target == "":
		return nil, ErrEmptyTarget
	case IsRemote(target):
		return l.fetch(ctx, target)
	case target == StdinTarget:
		return l.read(l.stdin, target, pageURL)
	default:
		return l.readFile(target, pageURL)
	}
}

func (l *Loader) readFile(path, pageURL string) (*Page, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided page path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if pageURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		pageURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return l.read(f, path, pageURL)
}

func (l *Loader) read(r io.Reader, source, pageURL string) (*Page, error) {
	body, truncated, err := l.readLimited(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	page, err := Parse(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	page.Source = source
	page.Size = int64(len(body))
	page.Truncated = truncated
	l.logTruncated(page)
	return page, nil
}

func (l *Loader) fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	site := l.siteConfig(req.URL.Hostname())
	if site.Cookie != "" {
		req.Header.Set("Cookie", site.Cookie)
	}
	for k, v := range site.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, pageURL, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotHTML, pageURL, contentType)
	}

	body, truncated, err := l.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	page, err := Parse(bytes.NewReader(body), finalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	page.Source = pageURL
	page.StatusCode = resp.StatusCode
	page.ContentType = contentType
	page.Size = int64(len(body))
	page.Truncated = truncated
	page.ViewportHeight = site.ViewportHeight

	l.logger.Debug("page fetched",
		"url", finalURL,
		"status", resp.StatusCode,
		"bytes", page.Size,
		"elapsed", time.Since(start))
	l.logTruncated(page)
	return page, nil
}

// readLimited reads at most maxBodySize bytes and reports whether more
// were available.
func (l *Loader) readLimited(r io.Reader) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, l.maxBodySize+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > l.maxBodySize {
		return body[:l.maxBodySize], true, nil
	}
	return body, false, nil
}

func (l *Loader) siteConfig(host string) config.SiteConfig {
	if l.sites == nil {
		return config.SiteConfig{}
	}
	return l.sites.GetSiteConfig(strings.ToLower(host))
}

func (l *Loader) logTruncated(p *Page) {
	if p.Truncated {
		l.logger.Warn("page truncated", "source", p.Source, "limit", l.maxBodySize)
	}
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
