// Package pipeline runs per-page side effects after a visit completes:
// saving screenshots, piping rendered bodies to a user command, and
// checking or downloading the images a page references.
//
// The pipeline is assembled once from configuration and executed for
// every reachable page. Step failures are logged and never affect
// traversal; a broken screenshot directory should not stop a link
// check.
package pipeline
