// Package database provides optional SQLite-based storage for crawl
// results.
//
// When --database is set, every finished run is appended: one row in
// the runs table plus one row per visited URL. The store is write-only
// during a crawl; traversal never reads from it. It exists for
// post-run querying (which links broke, when, how often) and for
// comparing runs over time.
//
// SQLite via modernc.org/sqlite keeps the store a single CGO-free
// file.
package database
