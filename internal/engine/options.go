package engine

import (
	"log/slog"

	"github.com/nao1215/newsadvisor/internal/candidate"
	"github.com/nao1215/newsadvisor/internal/classify"
	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/present"
	"github.com/nao1215/newsadvisor/internal/scheduler"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. It is shared with every component.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTooltip sets the hover hook.
func WithTooltip(t present.Tooltip) SessionOption {
	return func(s *Session) {
		s.tooltip = t
	}
}

// WithPanel sets the click hook.
func WithPanel(p present.Panel) SessionOption {
	return func(s *Session) {
		s.panel = p
	}
}

// WithListener sets the annotation listener.
func WithListener(l present.Listener) SessionOption {
	return func(s *Session) {
		s.listener = l
	}
}

// WithSettings sets the initial settings.
func WithSettings(settings config.Settings) SessionOption {
	return func(s *Session) {
		s.settings = settings
	}
}

// WithLayout sets the offset source of the scheduler.
func WithLayout(layout scheduler.Layout) SessionOption {
	return func(s *Session) {
		if layout != nil {
			s.layout = layout
		}
	}
}

// WithMargin sets the scheduler proximity margin.
func WithMargin(margin int) SessionOption {
	return func(s *Session) {
		if margin >= 0 {
			s.margin = margin
		}
	}
}

// WithViewport sets the initial viewport.
func WithViewport(vp scheduler.Viewport) SessionOption {
	return func(s *Session) {
		s.viewport = vp
	}
}

// WithDetector sets the candidate detector.
func WithDetector(d *candidate.Detector) SessionOption {
	return func(s *Session) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithClassifierOptions passes options to the classifier.
func WithClassifierOptions(opts ...classify.ClassifierOption) SessionOption {
	return func(s *Session) {
		s.classifierOpts = append(s.classifierOpts, opts...)
	}
}
