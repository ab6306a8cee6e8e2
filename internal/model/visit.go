package model

import (
	"strconv"
	"time"
)

// StatusUnreachable is the sentinel printed in place of a numeric status
// code when a page could not be fetched or rendered at all.
const StatusUnreachable = "unreachable"

// Visit is the outcome of visiting one target. It is transient: the
// engine hands it to the status reporter, the side-effect pipeline, and
// the crawl report, then discards it.
type Visit struct {
	// URL is the visited URL.
	URL string

	// Seed is the seed URL this visit belongs to.
	Seed string

	// Depth is the recursion depth of the visited target.
	Depth int

	// StatusCode is the final HTTP status code. Meaningless when
	// Unreachable is true.
	StatusCode int

	// Unreachable is true when the page could not be fetched or
	// rendered at all.
	Unreachable bool

	// InScope records whether the page was in-scope for recursion.
	InScope bool

	// Links holds the normalized child link URLs extracted from the
	// page. Populated only when the page was reachable, in-scope, and
	// under the depth limit.
	Links []string

	// Images holds the normalized <img src> URLs extracted from the
	// page. Populated for every reachable page; consumed by the image
	// check/save pipeline steps.
	Images []string

	// Body is the rendered page body (outer HTML). Consumed by the
	// execute pipeline step.
	Body string

	// Screenshot holds PNG bytes when a screenshot was requested.
	Screenshot []byte

	// FetchedAt is when the visit completed.
	FetchedAt time.Time
}

// Status returns the status string printed by the reporter: the decimal
// status code, or the unreachable sentinel.
func (v *Visit) Status() string {
	if v.Unreachable {
		return StatusUnreachable
	}
	return strconv.Itoa(v.StatusCode)
}

// State returns the link state classification for this visit.
func (v *Visit) State() LinkState {
	if v.Unreachable {
		return StateUnreachable
	}
	return StateOf(v.StatusCode)
}
