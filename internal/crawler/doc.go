// Package crawler implements the traversal engine and its supporting
// pieces: link normalization, scope classification, and the visited
// ledger.
//
// # Traversal model
//
// Each target moves through a fixed lifecycle: discovered (normalized,
// not excluded, new to the ledger), gated (robots.txt check), rendered
// or unreachable, and then, only for reachable in-scope pages under the
// depth bound, extracted and recursed. A failure anywhere terminates
// that target's branch and nothing else.
//
// # Concurrency
//
// One coordinator goroutine owns the frontier, the reporter, the crawl
// report, and the side-effect pipeline. A bounded pool of workers does
// nothing but gate and render. Because discovery and the ledger's
// check-and-mark happen only on the coordinator, a URL can never be
// scheduled twice, no matter how many workers run.
package crawler
