package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/newsadvisor/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one page report in Markdown format.
func (w *MarkdownWriter) Write(report *model.PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Newsadvisor Report")
	md.PlainText("")
	w.writePage(md, report, false)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs an overview table, every page and the repeated
// placements.
func (w *MarkdownWriter) WriteBatch(reports []*model.PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	totals := Summarize(reports)

	md.H1("Newsadvisor Batch Report")
	md.PlainText("")
	w.writeOverview(md, reports, totals)

	for _, r := range reports {
		if r == nil {
			continue
		}
		md.H2(r.URL)
		md.PlainText("")
		w.writePage(md, r, true)
	}

	w.writeRepeated(md, totals)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writePage writes the sections of one page. Nested pages use one
// heading level less.
func (w *MarkdownWriter) writePage(md *markdown.Markdown, report *model.PageReport, nested bool) {
	section := md.H2
	sub := md.H3
	if nested {
		section = md.H3
		sub = md.H4
	}

	w.writeHeader(md, report)

	section("Classification Summary")
	md.PlainText("")
	w.writeSummary(md, report)

	section("Annotations")
	md.PlainText("")
	if !report.HasAnnotations() {
		md.PlainText("No elements were labeled.")
		md.PlainText("")
		return
	}
	for _, t := range model.AllTypes {
		annotations := report.AnnotationsOf(t)
		if !t.Annotated() || len(annotations) == 0 {
			continue
		}
		sub(t.Info().Headline)
		md.PlainText("")
		w.writeAnnotationsTable(md, annotations)
	}
}

// writeHeader writes the page information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.PageReport) {
	rows := [][]string{
		{"Page", "`" + report.URL + "`"},
	}
	if report.Title != "" {
		rows = append(rows, []string{"Title", report.Title})
	}
	rows = append(rows,
		[]string{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
		[]string{"Elapsed", report.Elapsed.Round(time.Millisecond).String()},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.PageReport) string {
	switch {
	case report.Error != "":
		return "❌ Error - " + report.Error
	case report.Disabled:
		return "⏸️ Advisor off"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the count table, a chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.PageReport) {
	st := report.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 News", strconv.Itoa(report.Count(model.TypeNews))},
			{"🔴 Ad", strconv.Itoa(report.Count(model.TypeAd))},
			{"🟠 Sponsored", strconv.Itoa(report.Count(model.TypeSponsored))},
			{"⚪ Neutral", strconv.Itoa(report.Count(model.TypeNeutral))},
			{"Zones", strconv.Itoa(st.Zones)},
			{"Suppressed", strconv.Itoa(st.Suppressed)},
			{"Pending", strconv.Itoa(report.Pending)},
			{"**Total**", "**" + strconv.Itoa(report.TotalClassified()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasAnnotations() {
		w.writePieChart(md, report.Stats.Classified)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of labeled outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Type]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Labeled Content"),
		piechart.WithShowData(true),
	)

	for _, t := range model.AllTypes {
		if n := counts[t]; t.Annotated() && n > 0 {
			chart.LabelAndIntValue(t.Label(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert summarizing the commercial share of a page.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.PageReport) {
	ads := report.Count(model.TypeAd)
	sponsored := report.Count(model.TypeSponsored)

	switch {
	case report.Error != "":
		md.Cautionf("The session failed: %s", report.Error)
	case report.Disabled:
		md.Note("The advisor was off for this page. Nothing was classified.")
	case ads > 0:
		md.Warningf("%d advertisement(s) and %d sponsored placement(s) were labeled on this page.", ads, sponsored)
	case sponsored > 0:
		md.Importantf("%d sponsored placement(s) were labeled on this page.", sponsored)
	case report.Count(model.TypeNews) > 0:
		md.Tip("Only news content was found on this page.")
	default:
		md.Note("No content was labeled on this page.")
	}
	md.PlainText("")
}

// writeAnnotationsTable writes a table of annotations with evidence.
func (w *MarkdownWriter) writeAnnotationsTable(md *markdown.Markdown, annotations []model.Annotation) {
	rows := make([][]string, len(annotations))
	for i, a := range annotations {
		reason := a.Result.Reason()
		if reason == "" {
			reason = "-"
		}
		dest := "-"
		if a.URL != nil && a.URL.Hostname != "" {
			dest = a.URL.Hostname + flagged(a.URL)
		}
		kind := a.Kind.String()
		if a.Zone {
			kind += " (zone)"
		}
		rows[i] = []string{
			strconv.Itoa(a.BadgeID),
			kind,
			"`" + truncateString(a.Target, 50) + "`",
			truncateString(reason, 60),
			truncateString(dest, 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Badge", "Kind", "Element", "Reason", "Destination"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, a := range annotations {
		if details := a.Result.Details(); len(details) > 0 {
			md.Details("Badge "+strconv.Itoa(a.BadgeID), strings.Join(details, "\n"))
		}
	}
	md.PlainText("")
}

// writeOverview writes one row per page and the batch chart.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, reports []*model.PageReport, totals Totals) {
	md.H2("Overview")
	md.PlainText("")

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			"`" + truncateString(r.URL, 60) + "`",
			strconv.Itoa(r.Count(model.TypeNews)),
			strconv.Itoa(r.Count(model.TypeAd)),
			strconv.Itoa(r.Count(model.TypeSponsored)),
			strconv.Itoa(r.Stats.Zones),
			w.getStatusText(r),
		})
	}
	rows = append(rows, []string{
		"**Total (" + strconv.Itoa(totals.Pages) + " pages)**",
		strconv.Itoa(totals.Classified[model.TypeNews]),
		strconv.Itoa(totals.Classified[model.TypeAd]),
		strconv.Itoa(totals.Classified[model.TypeSponsored]),
		strconv.Itoa(totals.Zones),
		"-",
	})

	md.Table(markdown.TableSet{
		Header: []string{"Page", "News", "Ad", "Sponsored", "Zones", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if totals.Annotations > 0 {
		w.writePieChart(md, totals.Classified)
	}
}

// writeRepeated lists placements labeled on several pages.
func (w *MarkdownWriter) writeRepeated(md *markdown.Markdown, totals Totals) {
	if len(totals.Repeated) == 0 {
		return
	}
	md.H2("Repeated Placements")
	md.PlainText("")

	rows := make([][]string, len(totals.Repeated))
	for i, p := range totals.Repeated {
		rows[i] = []string{
			"`" + truncateString(p.Fingerprint, 15) + "`",
			p.Type.Label(),
			strconv.Itoa(len(p.Pages)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Fingerprint", "Type", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [newsadvisor](https://github.com/nao1215/newsadvisor)*")
}
