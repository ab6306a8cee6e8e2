// Package robots gates crawling on robots.txt policy. Policies are
// fetched lazily once per base URL and cached for the lifetime of a
// seed's crawl; fetch or parse failures open the gate rather than
// blocking the crawl.
package robots
