// Package render loads pages and extracts the raw material the engine
// needs: final status code, link and image references, and the page
// body.
//
// Two renderers implement the same interface. The browser renderer
// drives headless Chrome through chromedp, so script-inserted links are
// visible and screenshots are possible. The static renderer is a plain
// HTTP fetch plus an HTML parse; it executes nothing and exists for
// environments without a browser (--no-browser).
//
// Both return link and image references exactly as written in the
// document. Resolution against the page URL and canonicalization are
// the crawler's job, so that scheme filtering and exclude matching see
// the same string regardless of which renderer produced it.
package render
