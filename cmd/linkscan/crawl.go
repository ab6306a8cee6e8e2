package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nao1215/linkscan/internal/config"
	"github.com/nao1215/linkscan/internal/crawler"
	"github.com/nao1215/linkscan/internal/database"
	"github.com/nao1215/linkscan/internal/fetch"
	"github.com/nao1215/linkscan/internal/model"
	"github.com/nao1215/linkscan/internal/pipeline"
	"github.com/nao1215/linkscan/internal/render"
	"github.com/nao1215/linkscan/internal/report"
	"github.com/nao1215/linkscan/internal/robots"
	"github.com/nao1215/linkscan/internal/tor"
)

// runCrawl wires the crawl together and runs every seed sequentially.
// The ledger, the reporter, the robots gate, and the report are shared
// across seeds; the scope and (when per-site overrides apply) the
// renderer are per seed.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := validateOnionSeeds(cfg); err != nil {
		return err
	}

	torClient, torCleanup, err := setupTor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer torCleanup()

	var db *database.CrawlDB
	if cfg.DatabasePath != "" {
		db, err = database.Open(cfg.DatabasePath, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", cfg.DatabasePath)
	}

	printFilter, err := crawler.CompileMatch(cfg.PrintStatus)
	if err != nil {
		return fmt.Errorf("invalid print-status pattern: %w", err)
	}
	reporter := report.NewConsole(os.Stdout, report.WithFilter(printFilter))

	// The base client carries no per-site overrides; it serves robots
	// fetches and image side effects.
	baseClient := newFetchClient(cfg, config.SiteConfig{}, torClient)
	gate := robots.NewGate(baseClient, cfg.UserAgent,
		robots.WithIgnore(cfg.IgnoreRobots),
		robots.WithLogger(logger),
	)

	crawlReport := model.NewCrawlReport(cfg.Seeds)
	ledger := crawler.NewLedger()
	// Convert to the sink interface only when a pipeline exists; boxing
	// the nil *pipeline.Pipeline would defeat crawlSeed's nil check.
	var sink crawler.VisitSink
	if p := buildPipeline(cfg, baseClient, reporter, logger); p != nil {
		sink = p
	}

	for _, seed := range cfg.Seeds {
		if ctx.Err() != nil {
			break
		}
		if err := crawlSeed(ctx, cfg, seed, torClient, ledger, reporter, crawlReport, sink, gate, logger); err != nil {
			return err
		}
	}

	crawlReport.Finish()

	if err := writeSummary(cfg, crawlReport, os.Stdout); err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}

	if db != nil {
		// Persisting the visit log must survive an interrupted crawl, so
		// the save runs on a fresh context.
		if err := db.SaveReport(context.Background(), crawlReport); err != nil {
			logger.Error("failed to save crawl report", "error", err)
		} else {
			logger.Debug("crawl report saved", "run_id", crawlReport.RunID, "path", cfg.DatabasePath)
		}
	}

	return nil
}

// crawlSeed builds the per-seed scope and engine and traverses one seed.
func crawlSeed(ctx context.Context, cfg *config.Config, seed string, torClient *tor.Client,
	ledger *crawler.Ledger, reporter crawler.StatusReporter, crawlReport *model.CrawlReport,
	sink crawler.VisitSink, gate crawler.Gate, logger *slog.Logger,
) error {
	site := siteFor(cfg, seed)

	scope, err := buildScope(cfg, seed, site)
	if err != nil {
		return err
	}

	renderer := newRenderer(cfg, site, torClient)
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("failed to close renderer", "error", err)
		}
	}()

	opts := []crawler.Option{
		crawler.WithLedger(ledger),
		crawler.WithReporter(reporter),
		crawler.WithReport(crawlReport),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithRateLimit(cfg.RateLimit),
		crawler.WithLogger(logger),
	}
	if sink != nil {
		opts = append(opts, crawler.WithSink(sink))
	}

	engine := crawler.NewEngine(renderer, opts...)
	return engine.Crawl(ctx, seed, scope, gate)
}

// siteFor returns the merged per-site overrides for a seed's host.
func siteFor(cfg *config.Config, seed string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	u, err := url.Parse(seed)
	if err != nil {
		return cfg.SiteConfigs.Defaults
	}
	return cfg.SiteConfigs.GetSiteConfig(u.Hostname())
}

// buildScope compiles the effective scope for one seed: per-site
// overrides win over global flags.
func buildScope(cfg *config.Config, seed string, site config.SiteConfig) (*crawler.Scope, error) {
	base, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seed, err)
	}

	var opts []crawler.ScopeOption

	depth := cfg.Depth
	if site.Depth != 0 {
		depth = site.Depth
	}
	if depth >= 0 {
		opts = append(opts, crawler.WithMaxDepth(depth))
	}

	include := cfg.Include
	if site.Include != "" {
		include = site.Include
	}
	if include != "" {
		re, err := crawler.CompileMatch(include)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern: %w", err)
		}
		opts = append(opts, crawler.WithInclude(re))
	}

	exclude := cfg.Exclude
	if site.Exclude != "" {
		exclude = site.Exclude
	}
	if exclude != "" {
		re, err := crawler.CompileMatch(exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
		opts = append(opts, crawler.WithExclude(re))
	}

	return crawler.NewScope(base, opts...), nil
}

// newFetchClient builds an HTTP client carrying the crawl's request
// identity plus any per-site cookie and headers.
func newFetchClient(cfg *config.Config, site config.SiteConfig, torClient *tor.Client) *fetch.Client {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.HTTPBasic != "" {
		opts = append(opts, fetch.WithBasicAuth(cfg.HTTPBasic))
	}
	if site.Cookie != "" {
		opts = append(opts, fetch.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(site.Headers))
	}
	if torClient != nil {
		opts = append(opts, fetch.WithDialContext(torClient.DialContext))
	}
	return fetch.NewClient(opts...)
}

// newRenderer selects the static or browser renderer per configuration.
func newRenderer(cfg *config.Config, site config.SiteConfig, torClient *tor.Client) render.Renderer {
	if cfg.NoBrowser {
		return render.NewStatic(newFetchClient(cfg, site, torClient))
	}

	headers := make(map[string]string, len(site.Headers)+2)
	for k, v := range site.Headers {
		headers[k] = v
	}
	if site.Cookie != "" {
		headers["Cookie"] = site.Cookie
	}
	if cfg.HTTPBasic != "" {
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.HTTPBasic))
	}

	bcfg := render.BrowserConfig{
		UserAgent:  cfg.UserAgent,
		Headers:    headers,
		Wait:       cfg.Wait,
		Screenshot: cfg.ScreenshotDir != "",
		Width:      cfg.Width,
		Height:     cfg.Height,
		MaxTabs:    int64(cfg.Concurrency),
	}
	if torClient != nil {
		bcfg.ProxyURL = torClient.ProxyURL()
	}
	return render.NewBrowser(bcfg)
}

// buildPipeline assembles the per-visit side-effect pipeline. Nil when
// no side effects are configured.
func buildPipeline(cfg *config.Config, client *fetch.Client, reporter crawler.StatusReporter, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(logger))

	if cfg.ScreenshotDir != "" {
		p.AddSteps(pipeline.NewScreenshotStep(cfg.ScreenshotDir,
			pipeline.WithScreenshotLogger(logger)))
	}
	if cfg.ExecuteCommand != "" {
		p.AddSteps(pipeline.NewExecuteStep(cfg.ExecuteCommand, os.Stdout,
			pipeline.WithExecuteLogger(logger)))
	}
	if cfg.CheckImages {
		p.AddSteps(pipeline.NewImageCheckStep(client, reporter,
			pipeline.WithImageCheckConcurrency(cfg.Concurrency),
			pipeline.WithImageCheckLogger(logger)))
	}
	if cfg.SaveImagesDir != "" {
		p.AddSteps(pipeline.NewImageSaveStep(client, cfg.SaveImagesDir,
			pipeline.WithImageSaveLogger(logger)))
	}

	if p.StepCount() == 0 {
		return nil
	}
	return p
}

// validateOnionSeeds rejects mistyped .onion seeds before any Tor
// bootstrap happens. Waiting minutes for circuits only to fail on a
// typo would be a poor failure mode.
func validateOnionSeeds(cfg *config.Config) error {
	for _, seed := range cfg.Seeds {
		u, err := url.Parse(seed)
		if err != nil {
			continue
		}
		host := u.Hostname()
		if !tor.IsOnionHost(host) {
			continue
		}
		if err := tor.ValidateOnionHost(host); err != nil {
			return fmt.Errorf("invalid onion seed %q: %w", seed, err)
		}
	}
	return nil
}

// setupTor prepares Tor routing when requested. The returned cleanup is
// always safe to call. A failed probe is fatal: crawling without the
// requested anonymity would be silently wrong.
func setupTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.Client, func(), error) {
	noop := func() {}

	switch {
	case cfg.TorEmbedded:
		fmt.Fprintln(os.Stderr, "Starting embedded Tor daemon; this may take 1-3 minutes...")

		embedded := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := embedded.Start(ctx); err != nil {
			return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		cleanup := func() {
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		client, err := embedded.NewClient()
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			cleanup()
			return nil, noop, fmt.Errorf("embedded Tor proxy check failed: %s", status)
		}

		logger.Info("embedded Tor daemon started", "socks_addr", embedded.SocksAddr())
		return client, cleanup, nil

	case cfg.UseTor:
		client, err := tor.NewClient(cfg.TorProxyAddress)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, noop, fmt.Errorf("tor proxy check failed: %s (is Tor running at %s?)",
				status, cfg.TorProxyAddress)
		}
		logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)
		return client, noop, nil

	default:
		return nil, noop, nil
	}
}

// writeSummary writes the post-crawl summary report in the configured
// format. With --output the formatted report goes to the file and the
// terminal still gets a short summary, so the run ends with visible
// results either way.
func writeSummary(cfg *config.Config, crawlReport *model.CrawlReport, terminal io.Writer) error {
	if cfg.OutputFile == "" {
		_, err := formatWriter(cfg, terminal).Write(crawlReport)
		return err
	}

	dir := filepath.Dir(cfg.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(
		formatWriter(cfg, f),
		report.NewSimpleWriter(terminal, report.WithVerbose(cfg.Debug)),
	)
	_, err = w.Write(crawlReport)
	return err
}

// formatWriter returns the report writer for the configured format.
func formatWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch cfg.Format {
	case config.FormatJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Debug))
	}
}
