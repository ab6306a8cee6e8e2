package report

import (
	"io"
	"time"

	"github.com/nao1215/linkscan/internal/model"
)

// timeRound is the precision durations are rounded to in summaries.
const timeRound = 10 * time.Millisecond

// Writer outputs a finished crawl report in some format.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// MultiWriter writes a report to several Writers in turn, for example
// a summary on the terminal and JSON in a file. It stops on the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers. Returns the
// total bytes written across all writers.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// stateOrder is the display order for link states in summaries.
var stateOrder = []model.LinkState{
	model.StateOK,
	model.StateRedirect,
	model.StateBrokenClient,
	model.StateBrokenServer,
	model.StateUnreachable,
}
