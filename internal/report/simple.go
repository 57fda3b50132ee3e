package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/newsadvisor/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with plain ASCII section
// formatting that can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no annotations are shown.
	showEmpty bool

	// verbose adds the evidence lines of every annotation.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one page report in human-readable format.
func (w *SimpleWriter) Write(report *model.PageReport) (int, error) {
	var sb strings.Builder
	w.writePage(&sb, report)
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs every page report followed by the batch totals.
func (w *SimpleWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	var sb strings.Builder
	for _, r := range reports {
		if r != nil {
			w.writePage(&sb, r)
		}
	}
	w.writeTotals(&sb, Summarize(reports))
	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writePage(sb *strings.Builder, report *model.PageReport) {
	w.writeHeader(sb, report)
	w.writeSummary(sb, report)
	w.writeAnnotations(sb, report)
}

// writeHeader writes the report header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.PageReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        NEWSADVISOR REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Page:       %s\n", report.URL))
	if report.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:      %s\n", report.Title))
	}
	sb.WriteString(fmt.Sprintf("Scan Date:  %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", report.Elapsed.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Status:     %s\n", statusText(report)))
	sb.WriteString("\n")
}

// writeSummary writes the classification counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.PageReport) {
	writeSection(sb, "CLASSIFICATION SUMMARY")

	for _, t := range model.AllTypes {
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", strings.ToUpper(t.String())+":", report.Count(t)))
	}
	sb.WriteString("\n")

	st := report.Stats
	sb.WriteString(fmt.Sprintf("  Registered: %d  Skipped: %d  Suppressed: %d\n", st.Registered, st.Skipped, st.Suppressed))
	sb.WriteString(fmt.Sprintf("  Zones: %d  Failed: %d  Pending: %d\n", st.Zones, st.Failed, report.Pending))
	sb.WriteString("\n")
}

// writeAnnotations writes the labeled elements grouped by type.
func (w *SimpleWriter) writeAnnotations(sb *strings.Builder, report *model.PageReport) {
	if !report.HasAnnotations() && !w.showEmpty {
		return
	}

	writeSection(sb, "ANNOTATIONS")

	for _, t := range model.AllTypes {
		if !t.Annotated() {
			continue
		}
		annotations := report.AnnotationsOf(t)
		if len(annotations) == 0 && !w.showEmpty {
			continue
		}
		w.writeAnnotationsOfType(sb, t, annotations)
	}
}

func (w *SimpleWriter) writeAnnotationsOfType(sb *strings.Builder, t model.Type, annotations []model.Annotation) {
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator(t), t.Label()))

	if len(annotations) == 0 {
		sb.WriteString("  No annotations\n\n")
		return
	}

	for _, a := range annotations {
		zone := ""
		if a.Zone {
			zone = " (zone)"
		}
		sb.WriteString(fmt.Sprintf("  * #%d %s%s %s\n", a.BadgeID, a.Kind, zone, a.Target))
		if reason := a.Result.Reason(); reason != "" {
			sb.WriteString(fmt.Sprintf("    Reason: %s\n", reason))
		}
		if a.URL != nil && a.URL.Hostname != "" {
			sb.WriteString(fmt.Sprintf("    Destination: %s%s\n", a.URL.Hostname, flagged(a.URL)))
		}
		if w.verbose {
			for _, d := range a.Result.Details() {
				sb.WriteString(fmt.Sprintf("    - %s\n", d))
			}
		}
	}
	sb.WriteString("\n")
}

// writeTotals writes the batch summary.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, t Totals) {
	writeSection(sb, "BATCH TOTALS")

	sb.WriteString(fmt.Sprintf("  Pages: %d  Disabled: %d  Errors: %d\n", t.Pages, t.Disabled, t.Errors))
	for _, typ := range model.AllTypes {
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", strings.ToUpper(typ.String())+":", t.Classified[typ]))
	}
	sb.WriteString(fmt.Sprintf("  Zones: %d  Annotations: %d\n", t.Zones, t.Annotations))
	sb.WriteString("\n")

	if len(t.Repeated) == 0 {
		return
	}
	sb.WriteString("Repeated placements:\n")
	for _, p := range t.Repeated {
		sb.WriteString(fmt.Sprintf("  * %s %s on %d pages\n", p.Fingerprint[:min(12, len(p.Fingerprint))], p.Type.Label(), len(p.Pages)))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by newsadvisor\n")
	sb.WriteString("https://github.com/nao1215/newsadvisor\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// indicator returns a visual marker for an outcome.
func indicator(t model.Type) string {
	switch t {
	case model.TypeAd:
		return "!!"
	case model.TypeSponsored:
		return "!"
	case model.TypeNews:
		return "+"
	default:
		return "-"
	}
}

// flagged formats the tracking parameters of a destination.
func flagged(u *model.ParsedURL) string {
	if len(u.FlaggedParams) == 0 {
		return ""
	}
	keys := make([]string, 0, len(u.FlaggedParams))
	for _, p := range u.FlaggedParams {
		keys = append(keys, p.Key)
	}
	return " [" + strings.Join(keys, ", ") + "]"
}
