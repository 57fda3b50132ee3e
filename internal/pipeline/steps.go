package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/classify"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/engine"
	"github.com/nao1215/newsadvisor/internal/loader"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/nao1215/newsadvisor/internal/replay"
	"github.com/nao1215/newsadvisor/internal/scheduler"
)

// Errors returned by steps that run before their prerequisites.
var (
	ErrNoPage    = errors.New("no page loaded")
	ErrNoSession = errors.New("no session created")
)

// LoadStep reads and parses the job target.
type LoadStep struct {
	loader  *loader.Loader
	pageURL string
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithDefaultPageURL sets the page location used for jobs that carry
// none.
func WithDefaultPageURL(u string) LoadStepOption {
	return func(s *LoadStep) {
		s.pageURL = u
	}
}

// NewLoadStep creates a LoadStep.
func NewLoadStep(l *loader.Loader, opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{loader: l}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do loads the page.
func (s *LoadStep) Do(ctx context.Context, job *Job) error {
	pageURL := job.PageURL
	if pageURL == "" {
		pageURL = s.pageURL
	}
	page, err := s.loader.Load(ctx, job.Target, pageURL)
	if err != nil {
		return err
	}
	job.Page = page
	return nil
}

// SessionStep creates and initializes a session over the loaded page.
type SessionStep struct {
	settings        config.Settings
	margin          int
	viewportHeight  int
	rowHeight       int
	adDomains       []string
	widgetSelectors []string
	listener        present.Listener
	logger          *slog.Logger
}

// SessionStepOption configures a SessionStep.
type SessionStepOption func(*SessionStep)

// WithSessionSettings sets the settings every session starts with.
func WithSessionSettings(settings config.Settings) SessionStepOption {
	return func(s *SessionStep) {
		s.settings = settings
	}
}

// WithSessionMargin sets the scheduler proximity margin.
func WithSessionMargin(margin int) SessionStepOption {
	return func(s *SessionStep) {
		s.margin = margin
	}
}

// WithSessionViewportHeight sets the initial viewport height. A per-site
// height from the configuration file takes precedence.
func WithSessionViewportHeight(height int) SessionStepOption {
	return func(s *SessionStep) {
		s.viewportHeight = height
	}
}

// WithSessionRowHeight sets the FlowLayout row height.
func WithSessionRowHeight(height int) SessionStepOption {
	return func(s *SessionStep) {
		s.rowHeight = height
	}
}

// WithSessionAdDomains extends the ad-network list.
func WithSessionAdDomains(domains ...string) SessionStepOption {
	return func(s *SessionStep) {
		s.adDomains = append(s.adDomains, domains...)
	}
}

// WithSessionWidgetSelectors extends the recommendation-widget selectors.
func WithSessionWidgetSelectors(selectors ...string) SessionStepOption {
	return func(s *SessionStep) {
		s.widgetSelectors = append(s.widgetSelectors, selectors...)
	}
}

// WithSessionListener sets the annotation listener of every session.
func WithSessionListener(l present.Listener) SessionStepOption {
	return func(s *SessionStep) {
		s.listener = l
	}
}

// WithSessionLogger sets the logger handed to sessions.
func WithSessionLogger(logger *slog.Logger) SessionStepOption {
	return func(s *SessionStep) {
		s.logger = logger
	}
}

// NewSessionStep creates a SessionStep with defaults from the config
// package.
func NewSessionStep(opts ...SessionStepOption) *SessionStep {
	s := &SessionStep{
		settings:       config.DefaultSettings(),
		margin:         config.DefaultMargin,
		viewportHeight: config.DefaultViewportHeight,
		rowHeight:      config.DefaultRowHeight,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionStepFromConfig creates a SessionStep from the session fields
// of cfg. opts are applied afterwards.
func NewSessionStepFromConfig(cfg *config.Config, opts ...SessionStepOption) *SessionStep {
	base := []SessionStepOption{
		WithSessionSettings(cfg.Settings),
		WithSessionMargin(cfg.Margin),
		WithSessionViewportHeight(cfg.ViewportHeight),
		WithSessionRowHeight(cfg.RowHeight),
		WithSessionAdDomains(cfg.AdDomains...),
		WithSessionWidgetSelectors(cfg.WidgetSelectors...),
	}
	return NewSessionStep(append(base, opts...)...)
}

// Name returns the step name.
func (s *SessionStep) Name() string {
	return "session"
}

// Do creates the session and runs the initial scan.
func (s *SessionStep) Do(_ context.Context, job *Job) error {
	if job.Page == nil {
		return ErrNoPage
	}
	detector, err := candidate.NewDetector(s.widgetSelectors...)
	if err != nil {
		return fmt.Errorf("invalid widget selector: %w", err)
	}

	height := s.viewportHeight
	if job.Page.ViewportHeight > 0 {
		height = job.Page.ViewportHeight
	}

	opts := []engine.SessionOption{
		engine.WithLogger(s.logger),
		engine.WithSettings(s.settings),
		engine.WithDetector(detector),
		engine.WithMargin(s.margin),
		engine.WithViewport(scheduler.Viewport{Top: 0, Height: height}),
		engine.WithLayout(scheduler.AttrLayout{Fallback: scheduler.NewFlowLayout(job.Page.Doc, s.rowHeight)}),
		engine.WithClassifierOptions(classify.WithAdDomains(s.adDomains...)),
	}
	if s.listener != nil {
		opts = append(opts, engine.WithListener(s.listener))
	}

	sess, err := engine.NewSession(job.Page.Doc, job.Page.URL, opts...)
	if err != nil {
		return err
	}
	sess.Init()
	job.Session = sess
	return nil
}

// ReplayStep plays a script against the session.
type ReplayStep struct {
	script *replay.Script
	player *replay.Player
}

// NewReplayStep creates a ReplayStep.
func NewReplayStep(script *replay.Script, logger *slog.Logger) *ReplayStep {
	return &ReplayStep{script: script, player: replay.NewPlayer(replay.WithLogger(logger))}
}

// Name returns the step name.
func (s *ReplayStep) Name() string {
	return "replay"
}

// Do plays the script.
func (s *ReplayStep) Do(ctx context.Context, job *Job) error {
	if job.Session == nil {
		return ErrNoSession
	}
	_, err := s.player.Play(ctx, job.Session, s.script)
	return err
}

// ScrollStep moves the session viewport.
type ScrollStep struct {
	viewport scheduler.Viewport
}

// NewScrollStep creates a ScrollStep. scheduler.Everything() reveals the
// whole page.
func NewScrollStep(vp scheduler.Viewport) *ScrollStep {
	return &ScrollStep{viewport: vp}
}

// Name returns the step name.
func (s *ScrollStep) Name() string {
	return "scroll"
}

// Do scrolls.
func (s *ScrollStep) Do(_ context.Context, job *Job) error {
	if job.Session == nil {
		return ErrNoSession
	}
	job.Session.HandleViewport(s.viewport)
	return nil
}

// ReportStep collects the session report.
type ReportStep struct{}

// NewReportStep creates a ReportStep.
func NewReportStep() *ReportStep {
	return &ReportStep{}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do copies the session report into the job.
func (s *ReportStep) Do(_ context.Context, job *Job) error {
	if job.Session == nil {
		return ErrNoSession
	}
	job.Report = job.Session.Report()
	if job.Page != nil {
		job.Report.Title = job.Page.Title
	}
	return nil
}

// DefaultPipelineConfig holds what the default pipeline needs beyond
// config.Config.
type DefaultPipelineConfig struct {
	// Settings overrides cfg.Settings, e.g. with the settings database.
	Settings *config.Settings

	// Script is played after the initial scan when set.
	Script *replay.Script

	// Listener receives every annotation.
	Listener present.Listener

	// Client performs remote requests.
	Client *http.Client

	// Stdin is read for the "-" target.
	Stdin io.Reader
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineSettings overrides the configured settings.
func WithPipelineSettings(settings config.Settings) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Settings = &settings
	}
}

// WithPipelineScript adds a replay step.
func WithPipelineScript(script *replay.Script) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Script = script
	}
}

// WithPipelineListener sets the annotation listener.
func WithPipelineListener(l present.Listener) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Listener = l
	}
}

// WithPipelineClient sets the HTTP client.
func WithPipelineClient(client *http.Client) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Client = client
	}
}

// WithPipelineStdin sets the reader of the "-" target.
func WithPipelineStdin(r io.Reader) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Stdin = r
	}
}

// DefaultPipeline creates the load, session, replay, scroll and report
// steps from cfg. Replay and scroll are only added when a script is given
// or cfg.ScrollAll is set.
func DefaultPipeline(cfg *config.Config, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	dc := &DefaultPipelineConfig{
		Client: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range configOpts {
		opt(dc)
	}

	settings := cfg.Settings
	if dc.Settings != nil {
		settings = *dc.Settings
	}

	loaderOpts := []loader.LoaderOption{
		loader.WithClient(dc.Client),
		loader.WithUserAgent(cfg.UserAgent),
		loader.WithMaxBodySize(cfg.MaxBodySize),
		loader.WithSites(cfg.File),
		loader.WithLogger(p.logger),
	}
	if dc.Stdin != nil {
		loaderOpts = append(loaderOpts, loader.WithStdin(dc.Stdin))
	}

	p.AddSteps(
		NewLoadStep(loader.New(loaderOpts...), WithDefaultPageURL(cfg.PageURL)),
		NewSessionStepFromConfig(cfg,
			WithSessionSettings(settings),
			WithSessionListener(dc.Listener),
			WithSessionLogger(p.logger),
		),
	)
	if dc.Script != nil {
		p.AddStep(NewReplayStep(dc.Script, p.logger))
	}
	if cfg.ScrollAll {
		p.AddStep(NewScrollStep(scheduler.Everything()))
	}
	p.AddStep(NewReportStep())

	return p
}
