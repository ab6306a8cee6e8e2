package model

// Target is a single unit of crawl work: an absolute URL together with
// the recursion depth at which it was discovered and the seed it belongs to.
// Targets are immutable once created; the engine consumes them and throws
// them away after the visit completes.
type Target struct {
	// URL is the normalized absolute URL to visit.
	URL string

	// Depth is the recursion depth. Seeds are depth 0; links extracted
	// from a page at depth n become targets at depth n+1.
	Depth int

	// Seed is the seed URL this target was discovered under.
	Seed string
}

// NewSeedTarget creates a depth-0 target for a seed URL.
func NewSeedTarget(seedURL string) Target {
	return Target{URL: seedURL, Depth: 0, Seed: seedURL}
}

// Child creates a target for a link discovered on this target's page.
func (t Target) Child(childURL string) Target {
	return Target{URL: childURL, Depth: t.Depth + 1, Seed: t.Seed}
}
