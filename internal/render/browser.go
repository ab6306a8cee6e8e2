package render

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// JS snippets collecting raw attribute values. getAttribute (rather
// than the href/src properties) preserves the reference exactly as
// written, so mailto: links and relative paths survive for the
// normalizer and the exclude filter to see.
const (
	jsLinks = `Array.from(document.querySelectorAll('a[href], area[href], iframe[src]'))
		.map(el => el.getAttribute('href') || el.getAttribute('src'))
		.filter(v => v !== null)`
	jsImages = `Array.from(document.querySelectorAll('img[src]'))
		.map(el => el.getAttribute('src'))
		.filter(v => v !== null)`
)

// screenshotQuality is the PNG capture quality passed to chromedp.
const screenshotQuality = 90

// ErrNoResponse is returned when navigation completed without a network
// response, which happens for non-HTTP schemes and aborted loads.
var ErrNoResponse = errors.New("navigation produced no response")

// BrowserConfig configures the headless browser renderer.
type BrowserConfig struct {
	// UserAgent is the browser's User-Agent string.
	UserAgent string

	// ProxyURL routes browser traffic through a proxy
	// (e.g. "socks5://127.0.0.1:9050" for Tor). Empty means direct.
	ProxyURL string

	// Headers are extra HTTP headers sent with every browser request.
	// Basic-auth credentials arrive here as an Authorization header.
	Headers map[string]string

	// Wait is the settle delay after the DOM is ready, letting
	// asynchronously loaded content appear before extraction.
	Wait time.Duration

	// Screenshot enables a full-page PNG per rendered page.
	Screenshot bool

	// Width and Height are the emulated viewport dimensions used for
	// screenshots.
	Width  int
	Height int

	// MaxTabs bounds concurrently open tabs. Matches the engine's
	// worker count so the browser never holds more pages than the
	// pool can process.
	MaxTabs int64
}

// Browser renders pages in one headless Chrome process, one tab per
// rendered page.
type Browser struct {
	cfg BrowserConfig

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	tabs *semaphore.Weighted
}

// NewBrowser launches the browser process lazily: the allocator is
// prepared here, and Chrome itself starts on the first Render call.
func NewBrowser(cfg BrowserConfig) *Browser {
	if cfg.MaxTabs <= 0 {
		cfg.MaxTabs = 1
	}

	execOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	if cfg.UserAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ProxyURL != "" {
		execOpts = append(execOpts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &Browser{
		cfg:           cfg,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          semaphore.NewWeighted(cfg.MaxTabs),
	}
}

// Render opens a tab, navigates, waits for the page to settle, and
// extracts references. The tab is closed before returning.
func (b *Browser) Render(ctx context.Context, pageURL string) (*Result, error) {
	if err := b.tabs.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.tabs.Release(1)

	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	// The tab derives from the browser context, not the caller's.
	// Propagate the caller's deadline and cancellation by hand.
	if deadline, ok := ctx.Deadline(); ok {
		var timeoutCancel context.CancelFunc
		tabCtx, timeoutCancel = context.WithDeadline(tabCtx, deadline)
		defer timeoutCancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if len(b.cfg.Headers) > 0 {
		headers := make(network.Headers, len(b.cfg.Headers))
		for k, v := range b.cfg.Headers {
			headers[k] = v
		}
		if err := chromedp.Run(tabCtx, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
			return nil, err
		}
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(pageURL))
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNoResponse
	}

	settle := []chromedp.Action{chromedp.WaitReady("body", chromedp.ByQuery)}
	if b.cfg.Wait > 0 {
		settle = append(settle, chromedp.Sleep(b.cfg.Wait))
	}

	var (
		body      string
		finalURL  string
		rawLinks  []string
		rawImages []string
	)
	actions := append(settle,
		chromedp.Evaluate(jsLinks, &rawLinks),
		chromedp.Evaluate(jsImages, &rawImages),
		chromedp.OuterHTML("html", &body, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, err
	}

	result := &Result{
		StatusCode: int(resp.Status),
		FinalURL:   finalURL,
		Links:      rawLinks,
		Images:     rawImages,
		Body:       body,
	}

	if b.cfg.Screenshot {
		var shot []byte
		if err := chromedp.Run(tabCtx,
			chromedp.EmulateViewport(int64(b.cfg.Width), int64(b.cfg.Height)),
			chromedp.FullScreenshot(&shot, screenshotQuality),
		); err != nil {
			return nil, err
		}
		result.Screenshot = shot
	}

	return result, nil
}

// Close shuts the browser process down.
func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}
