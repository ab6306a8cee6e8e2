package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/linkscan/internal/model"
)

// MarkdownWriter outputs the crawl report as a Markdown document with
// a summary table, a mermaid pie chart of the status split, and a
// broken links table. Designed for pasting into issues and wikis.
type MarkdownWriter struct {
	baseWriter

	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeBroken(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Link Check Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Seeds", "`" + strings.Join(report.Seeds, "`, `") + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(timeRound).String()},
			{"Pages Checked", strconv.Itoa(report.TotalVisits())},
			{"Skipped by robots.txt", strconv.Itoa(report.SkippedRobots)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the per-state tally and pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	counts := report.CountByState()

	md.H2("Status Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(stateOrder)+1)
	for _, state := range stateOrder {
		rows = append(rows, []string{
			w.stateHeading(state),
			strconv.Itoa(counts[state.String()]),
		})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(report.TotalVisits()) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"State", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.TotalVisits() > 0 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the status split.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[string]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Status Distribution"),
		piechart.WithShowData(true),
	)

	for _, state := range stateOrder {
		if n := counts[state.String()]; n > 0 {
			chart.LabelAndIntValue(w.stateHeading(state), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting the crawl outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	broken := report.BrokenVisits()
	switch {
	case len(broken) > 0:
		md.Warningf("%d broken or unreachable link(s) found.", len(broken))
	case report.TotalVisits() == 0:
		md.Note("No pages were checked.")
	default:
		md.Tip("All checked links are healthy.")
	}
	md.PlainText("")
}

// writeBroken writes the broken links table.
func (w *MarkdownWriter) writeBroken(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Broken Links")
	md.PlainText("")

	broken := report.BrokenVisits()
	if len(broken) == 0 {
		md.PlainText("No broken links detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(broken))
	for i, v := range broken {
		rows[i] = []string{
			v.Status,
			w.titler.String(strings.ReplaceAll(v.State, "-", " ")),
			truncateString(v.URL, 80),
			strconv.Itoa(v.Depth),
			truncateString(v.Seed, 40),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "State", "URL", "Depth", "Seed"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [linkscan](https://github.com/nao1215/linkscan)*")
}

// stateHeading renders a link state name for display: hyphens become
// spaces and each word is title-cased.
func (w *MarkdownWriter) stateHeading(state model.LinkState) string {
	return w.titler.String(strings.ReplaceAll(state.String(), "-", " "))
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
