package report

import (
	"fmt"
	"io"
	"regexp"
	"sync"
)

// Console streams one status line per checked URL to a writer as the
// crawl progresses. Lines are tab-separated: the status string, then
// the URL. A filter pattern, when set, must match the status string
// for the line to be printed; `404` or `[45]..` or `unreachable` are
// typical filters.
//
// Console is safe for concurrent use; image checks report from worker
// goroutines while page visits report from the coordinator.
type Console struct {
	mu     sync.Mutex
	output io.Writer
	filter *regexp.Regexp
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithFilter sets the status filter. The pattern must be compiled with
// match-from-start semantics; a nil filter prints everything.
func WithFilter(filter *regexp.Regexp) ConsoleOption {
	return func(c *Console) {
		c.filter = filter
	}
}

// NewConsole creates a console reporter writing to output.
func NewConsole(output io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{output: output}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report prints one status line if the filter matches.
func (c *Console) Report(status, url string) {
	if c.filter != nil && !c.filter.MatchString(status) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.output, "%s\t%s\n", status, url)
}
