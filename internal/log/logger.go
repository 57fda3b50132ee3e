package log

import (
	"io"
	"log/slog"
)

// NewSecureLogger returns a redacting text logger. It logs at Debug when
// verbose is set and at Warn otherwise.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return NewLevelLogger(w, verbosity(verbose))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, one object per
// line.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: verbosity(verbose)})
	return slog.New(NewSecureHandler(h))
}

// NewLevelLogger returns a redacting text logger with an explicit minimum
// level.
func NewLevelLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSecureHandler(h))
}

func verbosity(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
