package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// Package-level sentinels let callers use errors.Is() while still
// carrying a human-readable message.
var (
	// ErrNoSeed is returned when no seed URL was given.
	ErrNoSeed = errors.New("no seed URL specified: provide one or more URLs as arguments")

	// ErrInvalidSeed is returned when a seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrOnionNeedsTor is returned when a .onion seed is given without a
	// Tor mode. Crawling an onion address over the clearnet cannot work.
	ErrOnionNeedsTor = errors.New("onion seed requires --tor or --tor-embedded")

	// ErrInvalidPattern is returned when --include, --exclude, or
	// --print-status is not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid pattern: must be a valid regular expression")

	// ErrInvalidWait is returned when the settle wait is negative.
	ErrInvalidWait = errors.New("invalid wait: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker count is below one.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned when the per-target timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	// Use 0 to disable pacing.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidBasicAuth is returned when --http-basic is not in
	// "user:pass" form.
	ErrInvalidBasicAuth = errors.New("invalid basic auth: expected user:pass")

	// ErrScreenshotNeedsBrowser is returned when --screenshot is combined
	// with --no-browser. The static renderer cannot produce images.
	ErrScreenshotNeedsBrowser = errors.New("screenshots require the browser renderer: remove --no-browser")

	// ErrInvalidViewport is returned when the screenshot viewport has a
	// non-positive dimension.
	ErrInvalidViewport = errors.New("invalid viewport: width and height must be positive")

	// ErrInvalidFormat is returned when --format is not simple, json,
	// or markdown.
	ErrInvalidFormat = errors.New("invalid format: must be simple, json, or markdown")
)
