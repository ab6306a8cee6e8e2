package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxRedirects caps redirect chains. Ten matches net/http's own default
// and is plenty for legitimate sites.
const maxRedirects = 10

// DialContextFunc dials a network connection; it matches the signature
// of net.Dialer.DialContext and tor.Client.DialContext.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client wraps net/http with the crawl's request identity and limits.
type Client struct {
	hc          *http.Client
	maxBodySize int64
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	timeout     time.Duration
	userAgent   string
	basic       string
	cookie      string
	headers     map[string]string
	dialContext DialContextFunc
	maxBodySize int64
}

// WithTimeout sets the whole-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.userAgent = ua }
}

// WithBasicAuth attaches a "user:pass" basic-auth credential to all requests.
func WithBasicAuth(userPass string) Option {
	return func(s *settings) { s.basic = userPass }
}

// WithCookie attaches a raw Cookie header value to all requests.
func WithCookie(cookie string) Option {
	return func(s *settings) { s.cookie = cookie }
}

// WithHeaders attaches extra headers to all requests.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) { s.headers = headers }
}

// WithDialContext routes all connections through the given dialer.
// Used to send traffic through a Tor SOCKS5 proxy.
func WithDialContext(dial DialContextFunc) Option {
	return func(s *settings) { s.dialContext = dial }
}

// WithMaxBodySize caps how many bytes ReadBody reads from a response.
func WithMaxBodySize(size int64) Option {
	return func(s *settings) { s.maxBodySize = size }
}

// NewClient creates a Client. Zero options yield a 30-second timeout,
// no auth, and a 5MB body cap.
func NewClient(opts ...Option) *Client {
	s := settings{
		timeout:     30 * time.Second,
		maxBodySize: 5 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(&s)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	if s.dialContext != nil {
		transport.DialContext = s.dialContext
	}

	return &Client{
		hc: &http.Client{
			Timeout: s.timeout,
			Transport: &identityTransport{
				base:      transport,
				userAgent: s.userAgent,
				basic:     s.basic,
				cookie:    s.cookie,
				headers:   s.headers,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBodySize: s.maxBodySize,
	}
}

// identityTransport injects the crawl's request identity into every
// outgoing request, including redirect hops and robots fetches.
type identityTransport struct {
	base      http.RoundTripper
	userAgent string
	basic     string
	cookie    string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper. The request is cloned before
// mutation, per the RoundTripper contract.
func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	if t.basic != "" {
		user, pass, _ := cutBasic(t.basic)
		clone.SetBasicAuth(user, pass)
	}
	if t.cookie != "" {
		clone.Header.Set("Cookie", t.cookie)
	}
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}

// cutBasic splits a "user:pass" credential.
func cutBasic(userPass string) (user, pass string, ok bool) {
	for i := 0; i < len(userPass); i++ {
		if userPass[i] == ':' {
			return userPass[:i], userPass[i+1:], true
		}
	}
	return userPass, "", false
}

// Get performs a GET request. The caller owns the response body; use
// ReadBody to consume it with the size cap applied.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.hc.Do(req)
}

// Status returns the status code for a resource without downloading it.
// It tries HEAD first; servers that reject HEAD (405, 501) or break the
// protocol get one GET retry with the body drained and discarded.
func (c *Client) Status(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		var protoErr *http.ProtocolError
		if errors.As(err, &protoErr) {
			return c.statusByGet(ctx, rawURL)
		}
		return 0, err
	}
	c.drain(resp)

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return c.statusByGet(ctx, rawURL)
	}
	return resp.StatusCode, nil
}

// statusByGet is the GET fallback for HEAD-averse servers.
func (c *Client) statusByGet(ctx context.Context, rawURL string) (int, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	c.drain(resp)
	return resp.StatusCode, nil
}

// ReadBody reads and closes a response body, capped at the configured
// maximum size.
func (c *Client) ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
}

// drain consumes and closes a response body so the connection can be
// reused. At most maxBodySize bytes are read.
func (c *Client) drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // Best effort drain
	_ = resp.Body.Close()                                                //nolint:errcheck // Best effort close
}

// MaxBodySize returns the configured body cap.
func (c *Client) MaxBodySize() int64 {
	return c.maxBodySize
}
