// Package present holds the presentation side of an advisor session.
//
// The engine never renders anything itself. It marks the document through
// an Annotator and hands events to three collaborators:
//
//   - Tooltip receives the short evidence list when a labeled element is
//     hovered.
//   - Panel receives the full evidence trail, a markup snippet and the
//     parsed destination when a labeled element is clicked.
//   - Listener receives every Annotation as it is produced.
//
// Any collaborator may be nil. The slog-backed implementations in this
// package are what the CLI uses; Recorder is what tests and the replay
// command use.
package present
