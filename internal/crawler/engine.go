package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/linkscan/internal/model"
	"github.com/nao1215/linkscan/internal/render"
)

// Gate decides whether a URL may be fetched at all. The robots gate
// implements this; tests substitute fakes.
type Gate interface {
	// Allowed reports whether rawURL may be visited.
	Allowed(ctx context.Context, rawURL string) bool
}

// StatusReporter receives one status line per completed visit.
type StatusReporter interface {
	// Report emits one visit outcome: a status string and the URL.
	Report(status, url string)
}

// VisitSink runs side effects (screenshots, image checks, command
// execution) on a completed visit. It is called on the coordinator
// goroutine, one visit at a time.
type VisitSink interface {
	// Execute runs all side effects for one visit.
	Execute(ctx context.Context, v *model.Visit) error
}

// Engine drives the crawl: it owns the frontier, the visited ledger,
// and the worker pool, and funnels every completed visit through the
// reporter, the report, and the sink.
//
// The ledger is shared across every Crawl call on the same engine, so
// multiple seeds in one run never visit the same URL twice. Scope and
// gate are per-seed and passed to Crawl.
type Engine struct {
	renderer    render.Renderer
	ledger      *Ledger
	reporter    StatusReporter
	sink        VisitSink
	report      *model.CrawlReport
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithReporter sets the status reporter.
func WithReporter(r StatusReporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithSink sets the per-visit side-effect sink.
func WithSink(s VisitSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithReport sets the crawl report that accumulates visit records.
func WithReport(r *model.CrawlReport) Option {
	return func(e *Engine) { e.report = r }
}

// WithConcurrency sets the worker pool size. Values below 1 are
// treated as 1.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithTimeout bounds each render. Zero means no per-render timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithRateLimit spaces render starts at the given requests-per-second
// across all workers. Zero or negative disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(e *Engine) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLedger substitutes a shared visited ledger. Engines built with
// different renderers (per-site overrides) can then still dedupe URLs
// across one run.
func WithLedger(l *Ledger) Option {
	return func(e *Engine) {
		if l != nil {
			e.ledger = l
		}
	}
}

// NewEngine creates an engine around a renderer. The ledger it creates
// lives for the engine's lifetime and is shared by every Crawl call.
func NewEngine(renderer render.Renderer, opts ...Option) *Engine {
	e := &Engine{
		renderer:    renderer,
		ledger:      NewLedger(),
		concurrency: 1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger returns the engine's shared visited ledger.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// visitResult carries one worker's outcome back to the coordinator.
type visitResult struct {
	target      model.Target
	res         *render.Result
	err         error
	robotsSkip  bool
	rateAborted bool
}

// Crawl traverses one seed. It returns when the frontier is exhausted
// or, after ctx is canceled, once every in-flight render has drained.
// Context cancellation is not an error: the partial crawl stands.
func (e *Engine) Crawl(ctx context.Context, seedURL string, scope *Scope, gate Gate) error {
	seed, ok := Normalize(seedURL, nil)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidSeed, seedURL)
	}

	var frontier []model.Target
	if !scope.Excluded(seed) && e.ledger.MarkIfNew(seed) {
		frontier = append(frontier, model.NewSeedTarget(seed))
	}
	if len(frontier) == 0 {
		e.logger.Debug("seed already visited or excluded, nothing to do", "seed", seed)
		return nil
	}

	tasks := make(chan model.Target)
	results := make(chan visitResult)

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results <- e.visit(ctx, gate, t)
			}
		}()
	}

	inFlight := 0
	stopping := false
	done := ctx.Done()
	for len(frontier) > 0 || inFlight > 0 {
		// Only offer a task when the frontier has one; a nil channel
		// makes that select arm inert.
		var send chan<- model.Target
		var next model.Target
		if len(frontier) > 0 {
			next = frontier[0]
			send = tasks
		}

		select {
		case send <- next:
			frontier = frontier[1:]
			inFlight++
		case r := <-results:
			inFlight--
			children := e.handle(ctx, scope, r)
			if !stopping {
				frontier = append(frontier, children...)
			}
		case <-done:
			// Stop feeding new work but drain what is in flight;
			// their renders observe the same cancellation.
			stopping = true
			frontier = nil
			done = nil
		}
	}

	close(tasks)
	wg.Wait()
	return nil
}

// visit is the worker half of a crawl step: gate, rate limit, render.
// It always returns exactly one result so the coordinator's in-flight
// accounting stays exact.
func (e *Engine) visit(ctx context.Context, gate Gate, t model.Target) visitResult {
	if gate != nil && !gate.Allowed(ctx, t.URL) {
		return visitResult{target: t, robotsSkip: true}
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return visitResult{target: t, err: err, rateAborted: true}
		}
	}

	rctx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	res, err := e.renderer.Render(rctx, t.URL)
	return visitResult{target: t, res: res, err: err}
}

// handle is the coordinator half: it turns a worker result into a
// Visit, feeds the reporter, the report, and the sink, and returns the
// newly claimed child targets.
func (e *Engine) handle(ctx context.Context, scope *Scope, r visitResult) []model.Target {
	t := r.target
	if r.robotsSkip {
		if e.report != nil {
			e.report.AddRobotsSkip()
		}
		e.logger.Debug("skipped by robots.txt", "url", t.URL)
		return nil
	}
	if r.rateAborted {
		// The run was canceled while waiting for a rate token; the
		// page was never attempted, so nothing to report.
		e.logger.Debug("rate limiter wait aborted", "url", t.URL)
		return nil
	}

	v := &model.Visit{
		URL:       t.URL,
		Seed:      t.Seed,
		Depth:     t.Depth,
		InScope:   scope.InScope(t.URL),
		FetchedAt: time.Now().UTC(),
	}
	if r.err != nil || r.res == nil {
		v.Unreachable = true
		if r.err != nil {
			e.logger.Debug("render failed", "url", t.URL, "error", r.err)
		}
	} else {
		v.StatusCode = r.res.StatusCode
		v.Body = r.res.Body
		v.Screenshot = r.res.Screenshot

		base := resolveBase(r.res.FinalURL, t.URL)
		v.Images = normalizeAll(r.res.Images, base)
		if v.InScope && scope.AllowsChildren(t.Depth) {
			v.Links = normalizeAll(r.res.Links, base)
		}
	}

	if e.reporter != nil {
		e.reporter.Report(v.Status(), v.URL)
	}
	if e.report != nil {
		e.report.AddVisit(v)
	}
	if e.sink != nil {
		if err := e.sink.Execute(ctx, v); err != nil {
			e.logger.Warn("visit side effect failed", "url", v.URL, "error", err)
		}
	}

	var children []model.Target
	for _, link := range v.Links {
		if !crawlable(link) {
			continue
		}
		if scope.Excluded(link) {
			continue
		}
		if !e.ledger.MarkIfNew(link) {
			continue
		}
		children = append(children, t.Child(link))
	}
	return children
}

// resolveBase parses the post-redirect URL for resolving relative
// links, falling back to the requested URL.
func resolveBase(finalURL, requestedURL string) *url.URL {
	if finalURL != "" {
		if u, err := url.Parse(finalURL); err == nil && u.IsAbs() {
			return u
		}
	}
	u, err := url.Parse(requestedURL)
	if err != nil {
		return nil
	}
	return u
}

// normalizeAll normalizes and dedupes raw references in document order.
func normalizeAll(raw []string, base *url.URL) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		n, ok := Normalize(r, base)
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// crawlable reports whether a normalized URL can actually be fetched.
// The normalizer keeps mailto: and tel: so exclude patterns can match
// them, but only http(s) URLs become crawl targets.
func crawlable(link string) bool {
	return strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")
}
