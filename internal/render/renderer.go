package render

import "context"

// Result is what rendering one page produced.
type Result struct {
	// StatusCode is the final HTTP status of the navigation.
	StatusCode int

	// FinalURL is the URL the navigation ended on after redirects.
	// Child links resolve against this, not the requested URL.
	FinalURL string

	// Links holds href/src references exactly as they appear in the
	// document: a[href], area[href], iframe[src]. Unresolved.
	Links []string

	// Images holds img[src] references as written. Unresolved.
	Images []string

	// Body is the rendered document's outer HTML.
	Body string

	// Screenshot holds PNG bytes when the renderer was configured to
	// capture one. Nil otherwise.
	Screenshot []byte
}

// Renderer loads one page per call. Implementations must honor ctx
// cancellation and deadlines; any error means the page is treated as
// unreachable.
type Renderer interface {
	// Render navigates to pageURL and returns the outcome.
	Render(ctx context.Context, pageURL string) (*Result, error)

	// Close releases renderer resources (the browser process, if any).
	Close() error
}
