package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"golang.org/x/text/unicode/norm"
)

// Normalize turns a raw link reference into a canonical absolute URL.
// The second return value is false when the link represents no navigable
// resource and must be dropped: fragment-only references, script
// invocations, and anything that does not parse.
//
// mailto:, tel:, and similar non-fetchable schemes are NOT dropped here.
// They survive normalization so an exclude pattern can match them; if
// actually visited they fail as unreachable, which is the accurate
// outcome.
//
// Normalization is pure string/URL work; no network access happens here.
func Normalize(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(norm.NFC.String(raw))
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "#") {
		return "", false
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "vbscript:") {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	// Relative and scheme-relative references resolve against the page
	// they were found on; anything with its own authority stands alone.
	if !u.IsAbs() || u.Host == "" && u.Opaque == "" {
		if base == nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}

	// Fragments never change the fetched resource.
	u.Fragment = ""

	// Opaque URLs (mailto:a@b.com, tel:+123) have no hierarchical form
	// to canonicalize; serialize them as-is.
	if u.Opaque != "" {
		return u.String(), true
	}

	if u.Host == "" {
		return "", false
	}
	if u.Path == "" {
		u.Path = "/"
	}

	// Lowercased scheme/host, default port dropped, escapes normalized.
	// Trailing-slash and query variants stay distinct entries.
	return purell.NormalizeURL(u, purell.FlagsSafe), true
}
