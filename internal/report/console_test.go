package report

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"
)

func TestConsoleReport(t *testing.T) {
	t.Parallel()

	t.Run("prints tab separated status and url", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		c := NewConsole(&buf)
		c.Report("200", "http://example.com/")

		if got, want := buf.String(), "200\thttp://example.com/\n"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("filter suppresses non-matching statuses", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		c := NewConsole(&buf, WithFilter(regexp.MustCompile(`\A(?:[45]..|unreachable)`)))

		c.Report("200", "http://example.com/ok")
		c.Report("404", "http://example.com/gone")
		c.Report("503", "http://example.com/down")
		c.Report("unreachable", "http://example.com/dead")

		out := buf.String()
		if strings.Contains(out, "/ok") {
			t.Error("200 line should be filtered out")
		}
		for _, want := range []string{"404\thttp://example.com/gone\n", "503\thttp://example.com/down\n", "unreachable\thttp://example.com/dead\n"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("filter anchors at the start", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		c := NewConsole(&buf, WithFilter(regexp.MustCompile(`\A(?:4)`)))

		c.Report("404", "http://example.com/gone")
		c.Report("204", "http://example.com/nocontent")

		out := buf.String()
		if !strings.Contains(out, "/gone") {
			t.Error("404 should match a leading-4 filter")
		}
		if strings.Contains(out, "/nocontent") {
			t.Error("204 must not match a leading-4 filter mid-string")
		}
	})

	t.Run("concurrent reports produce whole lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		c := NewConsole(&buf)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Report("200", "http://example.com/page")
			}()
		}
		wg.Wait()

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 16 {
			t.Fatalf("got %d lines, want 16", len(lines))
		}
		for _, line := range lines {
			if line != "200\thttp://example.com/page" {
				t.Errorf("malformed line %q", line)
			}
		}
	})
}
