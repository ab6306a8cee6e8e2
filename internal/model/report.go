package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// VisitRecord is the persisted form of a Visit: what the crawl report,
// the JSON writer, and the database keep after the transient Visit is
// discarded. Bodies and screenshots are deliberately not retained.
type VisitRecord struct {
	// URL is the visited URL.
	URL string `json:"url"`

	// Seed is the seed URL this visit belongs to.
	Seed string `json:"seed"`

	// Depth is the recursion depth of the visit.
	Depth int `json:"depth"`

	// Status is the printed status string: a decimal code or the
	// unreachable sentinel.
	Status string `json:"status"`

	// State is the link state name (ok, redirect, broken-client,
	// broken-server, unreachable).
	State string `json:"state"`

	// InScope records whether the page was in-scope for recursion.
	InScope bool `json:"in_scope"`

	// FetchedAt is when the visit completed.
	FetchedAt time.Time `json:"fetched_at"`
}

// CrawlReport accumulates the outcome of one linkscan run. It is an
// output sink only: nothing in it feeds back into traversal decisions.
type CrawlReport struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// Seeds are the seed URLs the run was started with.
	Seeds []string `json:"seeds"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run completed (or was interrupted).
	FinishedAt time.Time `json:"finished_at"`

	// Visits holds one record per visited URL, in completion order.
	Visits []VisitRecord `json:"visits"`

	// SkippedRobots counts URLs that robots.txt disallowed. These were
	// never visited and never appear in Visits.
	SkippedRobots int `json:"skipped_robots"`

	// mu guards Visits and SkippedRobots. Visits complete on the
	// coordinator goroutine, but the report is also read by writers
	// after the run and by tests.
	mu sync.Mutex
}

// NewCrawlReport creates an empty report for the given seeds with a
// fresh run ID.
func NewCrawlReport(seeds []string) *CrawlReport {
	return &CrawlReport{
		RunID:     uuid.NewString(),
		Seeds:     seeds,
		StartedAt: time.Now().UTC(),
		Visits:    make([]VisitRecord, 0),
	}
}

// AddVisit records a completed visit.
func (r *CrawlReport) AddVisit(v *Visit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Visits = append(r.Visits, VisitRecord{
		URL:       v.URL,
		Seed:      v.Seed,
		Depth:     v.Depth,
		Status:    v.Status(),
		State:     v.State().String(),
		InScope:   v.InScope,
		FetchedAt: v.FetchedAt,
	})
}

// AddRobotsSkip counts a URL that was dropped by the robots gate.
func (r *CrawlReport) AddRobotsSkip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SkippedRobots++
}

// Finish stamps the completion time.
func (r *CrawlReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}

// TotalVisits returns the number of recorded visits.
func (r *CrawlReport) TotalVisits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Visits)
}

// CountByState tallies visits per link state name.
func (r *CrawlReport) CountByState() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, v := range r.Visits {
		counts[v.State]++
	}
	return counts
}

// BrokenVisits returns the records whose state is broken-client,
// broken-server, or unreachable, in completion order.
func (r *CrawlReport) BrokenVisits() []VisitRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	broken := make([]VisitRecord, 0)
	for _, v := range r.Visits {
		switch v.State {
		case StateBrokenClient.String(), StateBrokenServer.String(), StateUnreachable.String():
			broken = append(broken, v)
		}
	}
	return broken
}

// Duration returns how long the run took. Zero until Finish is called.
func (r *CrawlReport) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
