// Package report turns crawl outcomes into output: the live status
// stream printed while the crawl runs, and the post-crawl summaries in
// simple text, JSON, and Markdown.
//
// The status stream (Console) is the primary interface of the tool: one
// tab-separated line per checked URL, filtered by the --print-status
// pattern. The summary writers run once after the crawl against the
// accumulated CrawlReport.
package report
