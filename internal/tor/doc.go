// Package tor provides Tor network connectivity for crawling .onion
// seeds.
//
// A Client wraps a SOCKS5 dialer for an external Tor daemon and checks
// that the configured proxy really speaks the Tor SOCKS5 protocol
// before a crawl starts. EmbeddedTor launches a Tor daemon via tornago
// when no external daemon is available. The onion address helpers
// validate v3 addresses by checksum so mistyped seeds fail fast.
package tor
