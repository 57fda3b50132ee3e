package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/newsadvisor/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one page report in JSON format.
func (w *JSONWriter) Write(report *model.PageReport) (int, error) {
	return w.writeJSON(report)
}

// WriteBatch outputs the page reports and their totals.
func (w *JSONWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	return w.writeJSON(BatchReport{Pages: nonNil(reports), Totals: Summarize(reports)})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// BatchReport is the JSON document of a batch run.
type BatchReport struct {
	// Version is the newsadvisor version, set by FullJSONWriter.
	Version string `json:"version,omitempty"`

	// Pages are the page reports in input order.
	Pages []*model.PageReport `json:"pages"`

	// Totals aggregates Pages.
	Totals Totals `json:"totals"`
}

// PageDocument wraps one page report with version information.
type PageDocument struct {
	// Version is the newsadvisor version that generated this report.
	Version string `json:"version"`

	// Report is the page report.
	Report *model.PageReport `json:"report"`
}

// FullJSONWriter outputs reports with a version wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the newsadvisor version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the page report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.PageReport) (int, error) {
	return w.writeJSON(PageDocument{Version: w.version, Report: report})
}

// WriteBatch outputs the batch with the version set.
func (w *FullJSONWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	return w.writeJSON(BatchReport{Version: w.version, Pages: nonNil(reports), Totals: Summarize(reports)})
}

func nonNil(reports []*model.PageReport) []*model.PageReport {
	out := make([]*model.PageReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
