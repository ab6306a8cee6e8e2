// Package fetch provides the plain HTTP client used for everything that
// is not a page render: robots.txt retrieval, image status checks, image
// downloads, and the static renderer's page fetches.
//
// The client injects the crawl's identity (User-Agent, basic auth,
// cookies, extra headers) through a RoundTripper so every request
// carries it, caps response bodies, and can dial through a SOCKS5
// proxy for Tor crawls.
package fetch
