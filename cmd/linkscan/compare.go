package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkscan/internal/model"
)

// ErrRegressions is returned when the comparison found links that broke
// between the two runs, so the process exits non-zero for CI use.
var ErrRegressions = errors.New("newly broken links found")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare OLD NEW",
		Short: "Compare two JSON crawl reports",
		Long: `Compare reads two JSON reports produced by "linkscan --format json"
and shows what changed between the runs:
- Newly broken: URLs that were healthy before and are broken now
- Fixed: URLs that were broken before and are healthy now
- Added / Removed: URLs present in only one of the runs

The command exits with status 1 when newly broken links exist, so it can
gate a CI pipeline.

Examples:
  # Check a site twice and diff the results
  linkscan --format json --output before.json https://example.com
  ...deploy...
  linkscan --format json --output after.json https://example.com
  linkscan compare before.json after.json

  # Machine-readable diff
  linkscan compare --json before.json after.json`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
		// Matches the root command: when run under root, cobra inherits
		// usage silencing from the parent anyway.
		SilenceUsage: true,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the comparison in JSON format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	oldReport, err := loadReport(args[0])
	if err != nil {
		return err
	}
	newReport, err := loadReport(args[1])
	if err != nil {
		return err
	}

	result := compareReports(oldReport, newReport)

	if jsonOutput {
		if err := writeComparisonJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		writeComparisonText(cmd.OutOrStdout(), result)
	}

	if len(result.NewlyBroken) > 0 {
		return fmt.Errorf("%w: %d", ErrRegressions, len(result.NewlyBroken))
	}
	return nil
}

// loadReport reads and decodes one JSON crawl report.
func loadReport(path string) (*model.CrawlReport, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}

	var r model.CrawlReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}

// ComparisonResult holds the diff between two crawl reports.
type ComparisonResult struct {
	// OldRun and NewRun identify the compared runs.
	OldRun RunInfo `json:"old_run"`
	NewRun RunInfo `json:"new_run"`

	// NewlyBroken are URLs healthy in the old run and broken in the new.
	NewlyBroken []URLChange `json:"newly_broken,omitempty"`

	// Fixed are URLs broken in the old run and healthy in the new.
	Fixed []URLChange `json:"fixed,omitempty"`

	// Added are URLs visited only in the new run.
	Added []string `json:"added,omitempty"`

	// Removed are URLs visited only in the old run.
	Removed []string `json:"removed,omitempty"`

	// UnchangedCount is the number of URLs with the same health in both runs.
	UnchangedCount int `json:"unchanged_count"`
}

// RunInfo is a compact identification of one compared run.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Visits    int       `json:"visits"`
	Broken    int       `json:"broken"`
}

// URLChange records a URL whose health changed between runs.
type URLChange struct {
	URL       string `json:"url"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// visitIndex maps each URL to its last recorded visit.
func visitIndex(r *model.CrawlReport) map[string]model.VisitRecord {
	index := make(map[string]model.VisitRecord, len(r.Visits))
	for _, v := range r.Visits {
		index[v.URL] = v
	}
	return index
}

// brokenState reports whether a visit record counts as broken.
func brokenState(v model.VisitRecord) bool {
	switch v.State {
	case model.StateBrokenClient.String(), model.StateBrokenServer.String(), model.StateUnreachable.String():
		return true
	}
	return false
}

// compareReports diffs two crawl reports URL by URL.
func compareReports(oldReport, newReport *model.CrawlReport) *ComparisonResult {
	oldVisits := visitIndex(oldReport)
	newVisits := visitIndex(newReport)

	result := &ComparisonResult{
		OldRun: RunInfo{
			RunID:     oldReport.RunID,
			StartedAt: oldReport.StartedAt,
			Visits:    len(oldReport.Visits),
			Broken:    len(oldReport.BrokenVisits()),
		},
		NewRun: RunInfo{
			RunID:     newReport.RunID,
			StartedAt: newReport.StartedAt,
			Visits:    len(newReport.Visits),
			Broken:    len(newReport.BrokenVisits()),
		},
	}

	for u, nv := range newVisits {
		ov, existed := oldVisits[u]
		if !existed {
			result.Added = append(result.Added, u)
			continue
		}
		oldBroken, newBroken := brokenState(ov), brokenState(nv)
		switch {
		case !oldBroken && newBroken:
			result.NewlyBroken = append(result.NewlyBroken, URLChange{
				URL: u, OldStatus: ov.Status, NewStatus: nv.Status,
			})
		case oldBroken && !newBroken:
			result.Fixed = append(result.Fixed, URLChange{
				URL: u, OldStatus: ov.Status, NewStatus: nv.Status,
			})
		default:
			result.UnchangedCount++
		}
	}

	for u := range oldVisits {
		if _, exists := newVisits[u]; !exists {
			result.Removed = append(result.Removed, u)
		}
	}

	// Map iteration order is random; sort for stable output.
	sort.Slice(result.NewlyBroken, func(i, j int) bool { return result.NewlyBroken[i].URL < result.NewlyBroken[j].URL })
	sort.Slice(result.Fixed, func(i, j int) bool { return result.Fixed[i].URL < result.Fixed[j].URL })
	sort.Strings(result.Added)
	sort.Strings(result.Removed)

	return result
}

// writeComparisonJSON writes the comparison result as indented JSON.
func writeComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeComparisonText writes the comparison in human-readable form.
func writeComparisonText(w io.Writer, result *ComparisonResult) {
	fmt.Fprintln(w, "Crawl Comparison")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Old run: %s (%s, %d visits, %d broken)\n",
		result.OldRun.RunID, result.OldRun.StartedAt.Format("2006-01-02 15:04:05"),
		result.OldRun.Visits, result.OldRun.Broken)
	fmt.Fprintf(w, "New run: %s (%s, %d visits, %d broken)\n",
		result.NewRun.RunID, result.NewRun.StartedAt.Format("2006-01-02 15:04:05"),
		result.NewRun.Visits, result.NewRun.Broken)

	if len(result.NewlyBroken) > 0 {
		fmt.Fprintf(w, "\nNewly broken (%d):\n", len(result.NewlyBroken))
		for _, c := range result.NewlyBroken {
			fmt.Fprintf(w, "  [!] %s (%s -> %s)\n", c.URL, c.OldStatus, c.NewStatus)
		}
	}
	if len(result.Fixed) > 0 {
		fmt.Fprintf(w, "\nFixed (%d):\n", len(result.Fixed))
		for _, c := range result.Fixed {
			fmt.Fprintf(w, "  [+] %s (%s -> %s)\n", c.URL, c.OldStatus, c.NewStatus)
		}
	}
	if len(result.Added) > 0 {
		fmt.Fprintf(w, "\nAdded (%d):\n", len(result.Added))
		for _, u := range result.Added {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
	if len(result.Removed) > 0 {
		fmt.Fprintf(w, "\nRemoved (%d):\n", len(result.Removed))
		for _, u := range result.Removed {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}

	fmt.Fprintf(w, "\nUnchanged: %d URLs\n", result.UnchangedCount)
	if len(result.NewlyBroken) == 0 {
		fmt.Fprintln(w, "No regressions.")
	}
}
