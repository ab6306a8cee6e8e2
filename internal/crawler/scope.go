package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

// Scope decides, per URL, whether recursion is allowed. It is derived
// once per seed and immutable afterwards; every method is pure and
// performs no I/O, so scope decisions are safe to evaluate anywhere.
type Scope struct {
	// base is the seed URL. Its scheme and host form the default scope
	// boundary when no include pattern is set.
	base *url.URL

	// include, when set, replaces domain scoping entirely.
	include *regexp.Regexp

	// exclude, when set, is applied unconditionally and wins over
	// everything else.
	exclude *regexp.Regexp

	// maxDepth bounds recursion when bounded is true.
	maxDepth int
	bounded  bool
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithInclude sets the include pattern, replacing domain-based scoping.
// Compile the pattern with CompileMatch so it anchors at the start.
func WithInclude(re *regexp.Regexp) ScopeOption {
	return func(s *Scope) { s.include = re }
}

// WithExclude sets the exclude pattern. Compile it with CompileMatch.
func WithExclude(re *regexp.Regexp) ScopeOption {
	return func(s *Scope) { s.exclude = re }
}

// WithMaxDepth bounds recursion: pages at depth >= max have their links
// skipped. Without this option depth is unbounded.
func WithMaxDepth(max int) ScopeOption {
	return func(s *Scope) {
		s.maxDepth = max
		s.bounded = true
	}
}

// NewScope creates the scope for one seed.
func NewScope(seed *url.URL, opts ...ScopeOption) *Scope {
	s := &Scope{base: seed}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompileMatch compiles a user pattern with match-from-start semantics:
// the pattern must match at the beginning of the subject, not anywhere
// inside it. Go's regexp searches by default; anchoring with \A
// restores "match" behavior.
func CompileMatch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)`)
}

// MustCompileMatch is CompileMatch for patterns known good at compile
// time; it panics on error. Intended for tests and defaults.
func MustCompileMatch(pattern string) *regexp.Regexp {
	re, err := CompileMatch(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// InScope reports whether a URL is eligible for link extraction and
// recursion. With an include pattern, the pattern alone decides.
// Otherwise the URL must share the seed's scheme and host, where
// "www.example.com" and "example.com" count as the same host.
//
// InScope gates only recursion; out-of-scope URLs are still visited and
// status-checked.
func (s *Scope) InScope(rawURL string) bool {
	if s.include != nil {
		return s.include.MatchString(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Scheme, s.base.Scheme) {
		return false
	}
	return hostKey(u) == hostKey(s.base)
}

// Excluded reports whether a URL is shut out of the crawl entirely.
// An excluded URL is never visited, never status-checked, and never
// reported; it wins over include and domain scoping alike.
func (s *Scope) Excluded(rawURL string) bool {
	return s.exclude != nil && s.exclude.MatchString(rawURL)
}

// AllowsChildren reports whether a page at the given depth may have its
// links extracted.
func (s *Scope) AllowsChildren(depth int) bool {
	return !s.bounded || depth < s.maxDepth
}

// Base returns the seed URL this scope was derived from.
func (s *Scope) Base() *url.URL {
	return s.base
}

// hostKey folds a URL's authority for scope comparison: lowercase, an
// optional leading "www." stripped, port kept as written. A structured
// compare rather than a string prefix, so "example.com.evil.com" never
// slips into "example.com" scope.
func hostKey(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if port := u.Port(); port != "" {
		return host + ":" + port
	}
	return host
}
