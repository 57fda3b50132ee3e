package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/nao1215/newsadvisor/internal/config"
)

// ErrClosed is returned when a closed host is used.
var ErrClosed = errors.New("browser host is closed")

// Host owns one Chrome instance.
type Host struct {
	headful      bool
	stealth      bool
	browserURL   string
	pollInterval time.Duration
	navTimeout   time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	closed   bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHeadful shows the browser window.
func WithHeadful(headful bool) HostOption {
	return func(h *Host) {
		h.headful = headful
	}
}

// WithStealth applies go-rod/stealth patches to new tabs.
func WithStealth(enabled bool) HostOption {
	return func(h *Host) {
		h.stealth = enabled
	}
}

// WithBrowserURL connects to a running browser through its DevTools
// WebSocket URL instead of launching one.
func WithBrowserURL(u string) HostOption {
	return func(h *Host) {
		h.browserURL = u
	}
}

// WithPollInterval sets how often tabs collect mutation records.
// Non-positive values keep the default.
func WithPollInterval(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.pollInterval = d
		}
	}
}

// WithNavigationTimeout bounds page navigation.
func WithNavigationTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.navTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost creates a Host. Call Start before opening tabs.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		stealth:      true,
		pollInterval: config.DefaultPollInterval,
		navTimeout:   config.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Start launches Chrome, or connects to the configured browser.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.browser != nil {
		return nil
	}

	wsURL := h.browserURL
	if wsURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(!h.headful).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		wsURL = u
		h.launcher = l
		h.logger.Debug("browser launched", slog.String("url", wsURL), slog.Bool("headful", h.headful))
	} else {
		h.logger.Debug("connecting to browser", slog.String("url", wsURL))
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		h.cleanup()
		return fmt.Errorf("connect browser: %w", err)
	}
	h.browser = b
	return nil
}

// Open creates a tab, navigates it to pageURL and installs the observer
// script. The observer is not started until Tab.Observe.
func (h *Host) Open(ctx context.Context, pageURL string) (*Tab, error) {
	h.mu.Lock()
	b := h.browser
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if b == nil {
		return nil, errors.New("browser host not started")
	}

	var (
		page *rod.Page
		err  error
	)
	if h.stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, h.navTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		h.logger.Warn("page load not confirmed", slog.String("url", pageURL), slog.String("error", err.Error()))
	}

	if _, err := page.Context(ctx).Eval(observerJS); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("install observer: %w", err)
	}

	return &Tab{
		page:         page,
		url:          pageURL,
		pollInterval: h.pollInterval,
		logger:       h.logger.With(slog.String("page", pageURL)),
	}, nil
}

// Close shuts the browser down. A connected browser is only disconnected.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return h.cleanup()
}

func (h *Host) cleanup() error {
	var err error
	if h.browser != nil {
		if h.launcher != nil {
			err = h.browser.Close()
		}
		h.browser = nil
	}
	if h.launcher != nil {
		h.launcher.Cleanup()
		h.launcher = nil
	}
	return err
}
