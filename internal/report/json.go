package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/linkscan/internal/model"
)

// JSONWriter outputs the crawl report as JSON. The output is the
// CrawlReport marshaled with its stable field names, suitable for
// `linkscan compare` and scripting.
type JSONWriter struct {
	baseWriter

	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets custom indentation for pretty printing.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
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

// Write outputs the report as JSON followed by a newline.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	var data []byte
	var err error
	if w.indent != "" || w.prefix != "" {
		data, err = json.MarshalIndent(report, w.prefix, w.indent)
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}

	n, err := w.output.Write(data)
	if err != nil {
		return n, err
	}
	m, err := w.output.Write([]byte("\n"))
	return n + m, err
}
