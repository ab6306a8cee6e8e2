package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// UnboundedDepth disables the recursion bound. Any negative depth
	// means "no limit"; we use -1 as the canonical value.
	UnboundedDepth = -1

	// DefaultPrintStatus matches every status string, so every visit
	// outcome is printed unless the user narrows the filter.
	DefaultPrintStatus = ".*"

	// DefaultWidth and DefaultHeight are the screenshot viewport size.
	DefaultWidth  = 1280
	DefaultHeight = 800

	// DefaultConcurrency bounds the worker pool. Four in-flight renders
	// keeps wide pages from fanning out into resource exhaustion while
	// still overlapping network latency.
	DefaultConcurrency = 4

	// DefaultTimeout is the per-target render/fetch timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies linkscan in HTTP requests. A
	// descriptive User-Agent lets operators recognize scanner traffic.
	DefaultUserAgent = "linkscan/2.0 (+https://github.com/nao1215/linkscan)"

	// DefaultMaxBodySize limits how much of a response body is read.
	// 5MB covers HTML pages while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorStartupTimeout is the maximum time to wait for the
	// embedded Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "linkscan"
)

// Report output formats accepted by --format.
const (
	FormatSimple   = "simple"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config holds all options for one linkscan run. It is populated from
// CLI flags (with the YAML config file merged underneath) and passed
// through the application explicitly rather than via globals.
type Config struct {
	// Seeds are the starting URLs. Each seed establishes its own scope;
	// the visited ledger is shared across all of them.
	Seeds []string

	// Depth is the recursion bound. A page at depth >= Depth has its
	// links skipped. UnboundedDepth (negative) disables the bound.
	Depth int

	// Include is a regex that, when set, replaces domain-based scoping
	// entirely: a URL is in-scope iff the pattern matches from the
	// start of the full URL string.
	Include string

	// Exclude is a regex matched from the start of the full URL string.
	// Matching URLs are skipped entirely: never visited, never
	// status-checked, never reported.
	Exclude string

	// PrintStatus filters reporter output: a visit line is printed only
	// when this pattern matches the status string from its start.
	PrintStatus string

	// CheckImages enables status-checking of <img src> resources.
	CheckImages bool

	// SaveImagesDir, when set, enables downloading <img src> resources
	// into this directory.
	SaveImagesDir string

	// ScreenshotDir, when set, enables a PNG screenshot per visited
	// page, written into this directory. Requires the browser renderer.
	ScreenshotDir string

	// Width and Height are the screenshot viewport dimensions.
	Width  int
	Height int

	// ExecuteCommand, when set, is a shell command run once per visited
	// page with the rendered body on stdin; its stdout is printed.
	ExecuteCommand string

	// Wait is the settle delay applied after navigation and before
	// extraction, so asynchronously loaded content appears in the DOM.
	Wait time.Duration

	// HTTPBasic is a "user:pass" credential attached to all requests
	// as a basic-auth header.
	HTTPBasic string

	// IgnoreRobots disables the robots.txt gate entirely.
	IgnoreRobots bool

	// Concurrency is the worker pool size.
	Concurrency int

	// Timeout is the per-target render/fetch timeout.
	Timeout time.Duration

	// RateLimit caps requests per second across all workers.
	// Zero disables pacing.
	RateLimit float64

	// UserAgent is the User-Agent header sent with every request,
	// including robots.txt fetches.
	UserAgent string

	// NoBrowser selects the static fetch-and-parse renderer instead of
	// the headless browser. Embedded scripts are not executed and
	// screenshots are unavailable in this mode.
	NoBrowser bool

	// MaxBodySize limits how much of a response body is read.
	MaxBodySize int64

	// UseTor routes all traffic through a SOCKS5 Tor proxy at
	// TorProxyAddress.
	UseTor bool

	// TorProxyAddress is the SOCKS5 address in "host:port" form.
	TorProxyAddress string

	// TorEmbedded launches an embedded Tor daemon instead of using an
	// external proxy.
	TorEmbedded bool

	// TorStartupTimeout bounds embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// OutputFile, when set, receives the post-crawl summary report.
	OutputFile string

	// Format selects the summary report format: simple, json, markdown.
	Format string

	// DatabasePath, when set, enables the SQLite visit log at this path.
	DatabasePath string

	// ConfigFilePath is the YAML config file path. Empty means search
	// the current directory and then the home directory for .linkscan.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config file.
	SiteConfigs *File

	// Debug enables debug-level logging.
	Debug bool
}

// NewConfig creates a Config with default values. Defaults are chosen so
// a bare "linkscan <url>" does something sensible: unbounded depth,
// domain scoping, robots respected, everything printed.
func NewConfig() *Config {
	return &Config{
		Depth:             UnboundedDepth,
		PrintStatus:       DefaultPrintStatus,
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		Concurrency:       DefaultConcurrency,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorProxyAddress:   DefaultTorProxyAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Format:            FormatSimple,
	}
}

// XDGDataDir returns the XDG data directory for linkscan.
// On Linux: ~/.local/share/linkscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkscan.
// On Linux: ~/.config/linkscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultDatabaseFile is the default visit-log database file name.
const DefaultDatabaseFile = "linkscan.db"

// DefaultDatabasePath returns the default visit-log location.
// On Linux: ~/.local/share/linkscan/linkscan.db
func DefaultDatabasePath() string {
	return filepath.Join(XDGDataDir(), DefaultDatabaseFile)
}

// Validate checks the configuration and returns a specific error for the
// first problem found. It is called once after flag parsing, before any
// crawling begins, so bad regexes and malformed seeds fail fast.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	for _, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return ErrInvalidSeed
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrInvalidSeed
		}
		if strings.HasSuffix(u.Hostname(), ".onion") && !c.UseTor && !c.TorEmbedded {
			return ErrOnionNeedsTor
		}
	}

	// Negative depth means unbounded; anything else must be >= 0, which
	// is always true. Flag parsing cannot produce other invalid values,
	// but config files can.
	for _, pattern := range []string{c.Include, c.Exclude, c.PrintStatus} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return ErrInvalidPattern
		}
	}

	if c.Wait < 0 {
		return ErrInvalidWait
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.HTTPBasic != "" {
		if _, _, ok := strings.Cut(c.HTTPBasic, ":"); !ok {
			return ErrInvalidBasicAuth
		}
	}

	if c.ScreenshotDir != "" {
		if c.NoBrowser {
			return ErrScreenshotNeedsBrowser
		}
		if c.Width <= 0 || c.Height <= 0 {
			return ErrInvalidViewport
		}
	}

	switch c.Format {
	case FormatSimple, FormatJSON, FormatMarkdown:
	default:
		return ErrInvalidFormat
	}

	return nil
}

// DepthLimited reports whether a recursion bound is configured.
func (c *Config) DepthLimited() bool {
	return c.Depth >= 0
}
