package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkscan/internal/model"
)

// SimpleWriter outputs a plain-text crawl summary: run information,
// a per-state tally, and the list of broken links.
type SimpleWriter struct {
	baseWriter

	// verbose includes every visit, not just the broken ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every visit instead of only the broken ones.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as plain text.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeBroken(&sb, report)
	if w.verbose {
		w.writeAllVisits(&sb, report)
	}

	return fmt.Fprint(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("linkscan crawl report\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(sb, "Run ID:   %s\n", report.RunID)
	fmt.Fprintf(sb, "Seeds:    %s\n", strings.Join(report.Seeds, ", "))
	fmt.Fprintf(sb, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration: %s\n", report.Duration().Round(timeRound))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	counts := report.CountByState()

	sb.WriteString("Summary\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	for _, state := range stateOrder {
		fmt.Fprintf(sb, "  %-14s %d\n", state.String(), counts[state.String()])
	}
	fmt.Fprintf(sb, "  %-14s %d\n", "total", report.TotalVisits())
	if report.SkippedRobots > 0 {
		fmt.Fprintf(sb, "  %-14s %d\n", "robots-skipped", report.SkippedRobots)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeBroken(sb *strings.Builder, report *model.CrawlReport) {
	broken := report.BrokenVisits()

	sb.WriteString("Broken links\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	if len(broken) == 0 {
		sb.WriteString("  none\n\n")
		return
	}
	for _, v := range broken {
		fmt.Fprintf(sb, "  %s\t%s (depth %d, seed %s)\n", v.Status, v.URL, v.Depth, v.Seed)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAllVisits(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("All visits\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	for _, v := range report.Visits {
		fmt.Fprintf(sb, "  %s\t%s\n", v.Status, v.URL)
	}
	sb.WriteString("\n")
}
