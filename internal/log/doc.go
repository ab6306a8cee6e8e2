// Package log provides linkscan's slog setup: a tint console handler on
// stderr wrapped in a redacting handler that keeps credentials out of
// log output.
//
// # Why redaction lives in a handler
//
// linkscan carries a --http-basic credential on every request and logs
// URLs constantly. Scrubbing at each call site is unreliable; a handler
// wrapper scrubs every record no matter which package logged it, and
// works with any underlying slog handler.
package log
