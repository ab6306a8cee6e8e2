// Package main provides the entry point for the linkscan CLI.
//
// linkscan recursively crawls a website starting from one or more seed
// URLs, checks every discovered link, and reports the status of each
// page. Broken links, redirects, and unreachable pages are summarized
// at the end of the run.
//
// Usage:
//
//	linkscan https://example.com
//	linkscan --depth 2 --check-images https://example.com
//
// See --help for all available options.
package main

// main is the entry point for linkscan.
func main() {
	Execute()
}
