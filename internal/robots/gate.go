package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/linkscan/internal/fetch"
)

// Gate answers "may I crawl this URL?" from cached robots.txt policy.
// A disallowed URL is skipped entirely: not visited, not status-checked,
// not reported. The zero decision on any failure is allow, so an absent
// or broken robots.txt never blocks a crawl.
type Gate struct {
	client    *fetch.Client
	userAgent string
	ignore    bool
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData

	// sf collapses concurrent first fetches for the same base URL so a
	// wide page does not trigger a stampede of robots.txt requests.
	sf singleflight.Group
}

// Option configures a Gate.
type Option func(*Gate)

// WithIgnore makes the gate allow everything without fetching anything.
// Backs the --ignore-robots flag.
func WithIgnore(ignore bool) Option {
	return func(g *Gate) { g.ignore = ignore }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// NewGate creates a Gate fetching policies with the given client and
// resolving rule groups for the given user agent (falling back to "*").
func NewGate(client *fetch.Client, userAgent string, opts ...Option) *Gate {
	g := &Gate{
		client:    client,
		userAgent: userAgent,
		logger:    slog.Default(),
		cache:     make(map[string]*robotstxt.RobotsData),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allowed reports whether the URL may be crawled. Malformed URLs are
// allowed through; they fail later at fetch time with a clearer outcome.
func (g *Gate) Allowed(ctx context.Context, rawURL string) bool {
	if g.ignore {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := g.policy(ctx, u)
	if data == nil {
		return true
	}

	group := data.FindGroup(g.userAgent)
	if group == nil {
		group = data.FindGroup("*")
		if group == nil {
			return true
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return group.Test(path)
}

// policy returns the cached robots.txt data for the URL's base, fetching
// it on first use. Nil means "no usable policy" and the caller allows.
func (g *Gate) policy(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	base := strings.ToLower(u.Scheme + "://" + u.Host)

	g.mu.RLock()
	data, ok := g.cache[base]
	g.mu.RUnlock()
	if ok {
		return data
	}

	fetched, err, _ := g.sf.Do(base, func() (any, error) {
		data := g.fetchPolicy(ctx, base)
		g.mu.Lock()
		g.cache[base] = data
		g.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil
	}
	data, _ = fetched.(*robotstxt.RobotsData)
	return data
}

// fetchPolicy retrieves and parses robots.txt for a base URL. Any
// failure (network, non-2xx, parse) yields nil: allow-all. Only 2xx
// bodies are parsed; a 404 means no policy and a 5xx means we cannot
// know, and neither should stop the crawl.
func (g *Gate) fetchPolicy(ctx context.Context, base string) *robotstxt.RobotsData {
	robotsURL := base + "/robots.txt"

	resp, err := g.client.Get(ctx, robotsURL)
	if err != nil {
		g.logger.Debug("robots.txt fetch failed, allowing all", "url", robotsURL, "error", err)
		return nil
	}

	body, err := g.client.ReadBody(resp)
	if err != nil {
		g.logger.Debug("robots.txt read failed, allowing all", "url", robotsURL, "error", err)
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Debug("robots.txt unavailable, allowing all",
			"url", robotsURL,
			"status", fmt.Sprintf("%d", resp.StatusCode),
		)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		g.logger.Debug("robots.txt parse failed, allowing all", "url", robotsURL, "error", err)
		return nil
	}
	return data
}
