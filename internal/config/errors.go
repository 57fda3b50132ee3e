package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Settings.Set() so that
// callers can use errors.Is() for programmatic handling.
var (
	// ErrNoTarget is returned when no page, file or list is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL, a file or use --list")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMargin is returned when the proximity margin is negative.
	ErrInvalidMargin = errors.New("invalid margin: must be non-negative")

	// ErrInvalidViewport is returned when the viewport height is not positive.
	ErrInvalidViewport = errors.New("invalid viewport height: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownSetting is returned by Settings.Set for an unknown key.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSettingValue is returned by Settings.Set for a value that
	// does not parse.
	ErrInvalidSettingValue = errors.New("invalid setting value")
)
