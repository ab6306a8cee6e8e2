// Package main provides the entry point for the linkscan CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkscan/internal/config"
	"github.com/nao1215/linkscan/internal/log"
)

// NewRootCmd creates the root command. The root command itself runs the
// crawl; init, compare, and version are subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkscan [url...]",
		Short: "Recursive link checker for websites",
		Long: `linkscan recursively crawls a website starting from one or more seed
URLs and checks the status of every discovered link. Pages on the seed's
domain are followed; external links are status-checked but not recursed
into. Broken links are summarized at the end of the run.

Examples:
  # Check all links reachable from a site
  linkscan https://example.com

  # Limit recursion depth and check images too
  linkscan --depth 2 --check-images https://example.com

  # Static mode (no headless browser), JSON report to a file
  linkscan --no-browser --format json --output report.json https://example.com

  # Only print broken links
  linkscan --print-status '[45]' https://example.com

  # Crawl an onion service through Tor
  linkscan --tor http://exampleonionv3addressxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx.onion

Configuration file (.linkscan) example:
  sites:
    docs.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 3`,
		Args:          cobra.ArbitraryArgs,
		Version:       shortVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	// Scope flags
	cmd.Flags().IntP("depth", "d", config.UnboundedDepth,
		"Maximum recursion depth (negative means unbounded)")
	cmd.Flags().String("include", "",
		"Regex replacing domain scoping; matched from the start of the URL")
	cmd.Flags().String("exclude", "",
		"Regex for URLs to skip entirely; matched from the start of the URL")

	// Side-effect flags
	cmd.Flags().Bool("check-images", false,
		"Status-check <img src> resources on visited pages")
	cmd.Flags().String("save-images", "",
		"Download <img src> resources into this directory")
	cmd.Flags().String("screenshot", "",
		"Write a PNG screenshot per visited page into this directory")
	cmd.Flags().Int("width", config.DefaultWidth, "Screenshot viewport width")
	cmd.Flags().Int("height", config.DefaultHeight, "Screenshot viewport height")
	cmd.Flags().StringP("execute", "e", "",
		"Shell command run per visited page with the rendered body on stdin")

	// Output flags
	cmd.Flags().String("print-status", config.DefaultPrintStatus,
		"Regex filter on printed status strings (e.g. '[45]' for broken only)")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary report to this file instead of stdout")
	cmd.Flags().StringP("format", "f", config.FormatSimple,
		"Summary report format: simple, json, or markdown")

	// Request flags
	cmd.Flags().Float64P("wait", "w", 0,
		"Seconds to let async content settle after navigation (e.g. 2 or 0.5)")
	cmd.Flags().String("http-basic", "",
		"Basic auth credential in user:pass form, sent with all requests")
	cmd.Flags().Bool("ignore-robots", false,
		"Crawl without consulting robots.txt")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of concurrent page workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-page render/fetch timeout")
	cmd.Flags().Float64("rate-limit", 0,
		"Maximum requests per second across all workers (0 disables)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for all requests")
	cmd.Flags().Bool("no-browser", false,
		"Fetch and parse HTML statically instead of using a headless browser")

	// Tor flags
	cmd.Flags().Bool("tor", false,
		"Route all traffic through a SOCKS5 Tor proxy")
	cmd.Flags().String("tor-proxy", config.DefaultTorProxyAddress,
		"SOCKS5 proxy address for --tor")
	cmd.Flags().Bool("tor-embedded", false,
		"Launch an embedded Tor daemon instead of using an external proxy")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Persistence and configuration flags
	cmd.Flags().String("database", config.DefaultDatabasePath(),
		"SQLite database path for the visit log (empty disables persistence)")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .linkscan in current or home directory)")
	cmd.Flags().Bool("debug", false, "Enable debug-level logging")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd validates the configuration and runs the crawl until the
// frontier is exhausted or the process is interrupted.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra flags and positional args.
// Flag values win over the YAML config file, which wins over defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seeds = args

	flags := cmd.Flags()
	var err error

	if cfg.Depth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.Include, err = flags.GetString("include"); err != nil {
		return nil, err
	}
	if cfg.Exclude, err = flags.GetString("exclude"); err != nil {
		return nil, err
	}
	if cfg.CheckImages, err = flags.GetBool("check-images"); err != nil {
		return nil, err
	}
	if cfg.SaveImagesDir, err = flags.GetString("save-images"); err != nil {
		return nil, err
	}
	if cfg.ScreenshotDir, err = flags.GetString("screenshot"); err != nil {
		return nil, err
	}
	if cfg.Width, err = flags.GetInt("width"); err != nil {
		return nil, err
	}
	if cfg.Height, err = flags.GetInt("height"); err != nil {
		return nil, err
	}
	if cfg.ExecuteCommand, err = flags.GetString("execute"); err != nil {
		return nil, err
	}
	if cfg.PrintStatus, err = flags.GetString("print-status"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	waitSeconds, err := flags.GetFloat64("wait")
	if err != nil {
		return nil, err
	}
	cfg.Wait = time.Duration(waitSeconds * float64(time.Second))
	if cfg.HTTPBasic, err = flags.GetString("http-basic"); err != nil {
		return nil, err
	}
	if cfg.IgnoreRobots, err = flags.GetBool("ignore-robots"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate-limit"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.NoBrowser, err = flags.GetBool("no-browser"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorProxyAddress, err = flags.GetString("tor-proxy"); err != nil {
		return nil, err
	}
	if cfg.TorEmbedded, err = flags.GetBool("tor-embedded"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.DatabasePath, err = flags.GetString("database"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Debug, err = flags.GetBool("debug"); err != nil {
		return nil, err
	}

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSiteConfigs loads the YAML config file into cfg.SiteConfigs. An
// explicitly named file must exist; the default search may come up
// empty without error.
func loadSiteConfigs(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case path != "":
		loaded, err := config.LoadConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.SiteConfigs = loaded
	case explicit:
		return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}
	return nil
}
