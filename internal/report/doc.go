// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output for sharing and documentation
//
// Report data lives in the model package; writers only format it. Every
// writer handles a single page report and a batch of page reports, and
// the batch output includes Totals, which groups identical placements
// seen on more than one page by their markup fingerprint.
package report
