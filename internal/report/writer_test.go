package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/linkscan/internal/model"
)

func testReport(t *testing.T) *model.CrawlReport {
	t.Helper()

	report := model.NewCrawlReport([]string{"http://site.test/"})
	visits := []*model.Visit{
		{URL: "http://site.test/", Seed: "http://site.test/", Depth: 0, StatusCode: 200, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://site.test/a", Seed: "http://site.test/", Depth: 1, StatusCode: 200, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://site.test/moved", Seed: "http://site.test/", Depth: 1, StatusCode: 301, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://site.test/gone", Seed: "http://site.test/", Depth: 1, StatusCode: 404, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://site.test/err", Seed: "http://site.test/", Depth: 2, StatusCode: 500, InScope: true, FetchedAt: time.Now().UTC()},
		{URL: "http://external.test/dead", Seed: "http://site.test/", Depth: 1, Unreachable: true, FetchedAt: time.Now().UTC()},
	}
	for _, v := range visits {
		report.AddVisit(v)
	}
	report.AddRobotsSkip()
	report.Finish()
	return report
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary and broken list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.Write(testReport(t)); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		wants := []string{
			"linkscan crawl report",
			"Seeds:    http://site.test/",
			"404\thttp://site.test/gone",
			"500\thttp://site.test/err",
			"unreachable\thttp://external.test/dead",
		}
		for name, count := range map[string]int{
			"ok": 2, "redirect": 1, "broken-client": 1,
			"broken-server": 1, "unreachable": 1,
			"total": 6, "robots-skipped": 1,
		} {
			wants = append(wants, fmt.Sprintf("  %-14s %d", name, count))
		}
		for _, want := range wants {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("healthy crawl reports none", func(t *testing.T) {
		t.Parallel()

		report := model.NewCrawlReport([]string{"http://site.test/"})
		report.AddVisit(&model.Visit{URL: "http://site.test/", Seed: "http://site.test/", StatusCode: 200, FetchedAt: time.Now().UTC()})
		report.Finish()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "none") {
			t.Error("broken section should say none for a healthy crawl")
		}
	})

	t.Run("verbose lists every visit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(testReport(t)); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "200\thttp://site.test/a") {
			t.Error("verbose output should list healthy visits too")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips through encoding/json", func(t *testing.T) {
		t.Parallel()

		report := testReport(t)
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}

		var decoded model.CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.RunID != report.RunID {
			t.Errorf("run id = %q, want %q", decoded.RunID, report.RunID)
		}
		if len(decoded.Visits) != report.TotalVisits() {
			t.Errorf("decoded %d visits, want %d", len(decoded.Visits), report.TotalVisits())
		}
		if decoded.SkippedRobots != 1 {
			t.Errorf("skipped robots = %d, want 1", decoded.SkippedRobots)
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testReport(t)); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"run_id\"") {
			t.Error("pretty printed output should be indented")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("full report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(testReport(t)); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Link Check Report",
			"## Status Summary",
			"Broken Client",
			"Broken Server",
			"Unreachable",
			"```mermaid",
			"## Broken Links",
			"http://site.test/gone",
			"broken or unreachable link(s) found",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("healthy crawl gets a tip", func(t *testing.T) {
		t.Parallel()

		report := model.NewCrawlReport([]string{"http://site.test/"})
		report.AddVisit(&model.Visit{URL: "http://site.test/", Seed: "http://site.test/", StatusCode: 200, FetchedAt: time.Now().UTC()})
		report.Finish()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "All checked links are healthy.") {
			t.Error("healthy crawl should produce the healthy tip")
		}
		if !strings.Contains(out, "No broken links detected.") {
			t.Error("broken section should report nothing to show")
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

	n, err := mw.Write(testReport(t))
	if err != nil {
		t.Fatal(err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("reported %d bytes, want %d", n, a.Len()+b.Len())
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("both writers should receive output")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "abc", maxLen: 10, want: "abc"},
		{name: "long string gets ellipsis", input: "abcdefghij", maxLen: 8, want: "abcde..."},
		{name: "tiny limit hard cuts", input: "abcdefghij", maxLen: 3, want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
