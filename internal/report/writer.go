package report

import (
	"io"

	"github.com/nao1215/newsadvisor/internal/model"
)

// Writer renders page reports in one output format.
type Writer interface {
	// Write renders the report of one page and returns the bytes written.
	Write(report *model.PageReport) (int, error)

	// WriteBatch renders several page reports followed by their totals.
	WriteBatch(reports []*model.PageReport) (int, error)
}

// MultiWriter fans reports out to several Writers in order, such as a
// JSON file and a text summary on the terminal. It stops at the first
// failing Writer.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a MultiWriter over writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write implements Writer.
func (m *MultiWriter) Write(report *model.PageReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteBatch implements Writer.
func (m *MultiWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBatch(reports) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	total := 0
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText returns a short status for a page report.
func statusText(report *model.PageReport) string {
	switch {
	case report.Error != "":
		return "ERROR - " + report.Error
	case report.Disabled:
		return "Advisor off for this page"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
