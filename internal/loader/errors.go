package loader

import "errors"

var (
	// ErrHTTPStatus is returned when a remote page answers with a status of
	// 400 or above.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrNotHTML is returned when a remote page is not an HTML document.
	ErrNotHTML = errors.New("content is not html")

	// ErrEmptyTarget is returned for an empty target string.
	ErrEmptyTarget = errors.New("empty target")
)
