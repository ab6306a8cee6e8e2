package crawler

import "sync"

// Ledger records which URLs have already been claimed for visiting.
// A URL is claimed exactly once across the whole run regardless of how
// many pages link to it or how many workers race to enqueue it.
type Ledger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// MarkIfNew atomically checks and claims a URL. It returns true when
// the caller is the first to claim it and should visit; false when the
// URL was already claimed.
func (l *Ledger) MarkIfNew(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[url]; ok {
		return false
	}
	l.seen[url] = struct{}{}
	return true
}

// Seen reports whether a URL has been claimed.
func (l *Ledger) Seen(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[url]
	return ok
}

// Len returns the number of claimed URLs.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
