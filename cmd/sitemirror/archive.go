package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aoyama-dev/sitemirror/internal/archive"
	"github.com/aoyama-dev/sitemirror/internal/config"
	"github.com/aoyama-dev/sitemirror/internal/crawler"
	"github.com/aoyama-dev/sitemirror/internal/database"
	"github.com/aoyama-dev/sitemirror/internal/fetch"
	applog "github.com/aoyama-dev/sitemirror/internal/log"
	"github.com/aoyama-dev/sitemirror/internal/model"
	"github.com/aoyama-dev/sitemirror/internal/report"
)

// NewArchiveCmd creates the archive command, the main operation of
// sitemirror: crawl one or more sites and persist every same-domain
// resource to the local archive tree.
func NewArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive [seed URL...]",
		Short: "Crawl a site and archive every same-domain resource",
		Long: `Archive crawls breadth-first from a seed URL, downloads each discovered
same-domain resource exactly once, and writes it into a directory tree
mirroring the site's URL hierarchy.

With no seed argument, the seed is built from --protocol, --domain,
--port, and --start-path. Multiple seed arguments archive several sites;
each gets its own browser session and sequential crawl, with up to
--concurrency sites in flight at once.`,
		Example: `  sitemirror archive https://docs.example.org/
  sitemirror archive --domain example.org --port 0 --output ./mirror
  sitemirror archive --capture-traffic https://a.example/ https://b.example/`,
		RunE: runArchive,
	}

	cmd.Flags().StringP("protocol", "P", config.DefaultProtocol, "Scheme for the built seed URL (http or https)")
	cmd.Flags().StringP("domain", "d", "", "Base domain admitted by the link filter (default: the seed's host)")
	cmd.Flags().String("host", "", "Host the crawl starts from (default: the base domain)")
	cmd.Flags().String("start-path", config.DefaultStartPath, "Path component of the built seed URL")
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port of the built seed URL (0 omits it)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Root directory of the archive tree")
	cmd.Flags().Bool("overwrite", false, "Rewrite files that already exist in the archive tree")
	cmd.Flags().Duration("delay", config.DefaultDelay, "Base delay between consecutive requests")
	cmd.Flags().Float64("jitter", config.DefaultJitter, "Fraction of the delay added as random jitter")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each individual fetch")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries, "Transient-failure retries in the raw fetch tier")
	cmd.Flags().String("proxy", "", "Proxy URL for both fetch tiers (http:// or socks5://)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent sent with every request")
	cmd.Flags().Int("max-pages", config.DefaultMaxPages, "Cap on processed URLs per run (0 is unlimited)")
	cmd.Flags().StringSlice("ignore", nil, "URL path glob patterns never enqueued")
	cmd.Flags().StringSlice("follow", nil, "URL path glob patterns; when set, only matching paths are enqueued")
	cmd.Flags().Bool("dir-resolve", false, "Resolve relative links against the containing directory of filename URLs")
	cmd.Flags().Bool("dom-links", false, "Extract links from the parsed DOM instead of attribute scanning")
	cmd.Flags().IntP("concurrency", "b", 1, "Number of seeds archived in parallel")
	cmd.Flags().StringP("config", "c", "", "Path to the .sitemirror config file")
	cmd.Flags().Bool("capture-traffic", false, "Record every request/response in the traffic database")
	cmd.Flags().String("db-dir", "", "Directory of the traffic database (default: XDG data dir)")
	cmd.Flags().Bool("json", false, "Output the run report as JSON")
	cmd.Flags().Bool("markdown", false, "Output the run report as Markdown")
	cmd.Flags().String("report-file", "", "Write the run report to a file instead of stdout")

	return cmd
}

// runArchive executes the archive command.
func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := buildArchiveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := applog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)

	// Ctrl-C cancels the crawl; partial results are still reported.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var trafficDB *database.TrafficDB
	if cfg.CaptureTraffic {
		trafficDB, err = database.Open(cfg.TrafficDBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open traffic database: %w", err)
		}
		defer func() {
			if err := trafficDB.Close(); err != nil {
				logger.Warn("failed to close traffic database", "error", err)
			}
		}()
	}

	seeds := cfg.Seeds
	if len(seeds) == 0 {
		seeds = []string{cfg.SeedURL()}
	}

	domainChanged := cmd.Flags().Changed("domain")
	runSeed := func(ctx context.Context, seed string) (*model.ArchiveReport, error) {
		return archiveOneSeed(ctx, cfg, seed, domainChanged, trafficDB, logger)
	}

	var reports []*model.ArchiveReport
	var runErr error
	if len(seeds) == 1 {
		rpt, err := runSeed(ctx, seeds[0])
		if rpt != nil {
			reports = append(reports, rpt)
		}
		runErr = err
	} else {
		batch := crawler.NewBatchRunner(runSeed,
			crawler.WithBatchConcurrency(cfg.Concurrency),
			crawler.WithBatchLogger(logger),
		)
		reports, runErr = batch.Run(ctx, seeds)
	}

	if err := outputReports(cmd, reports); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// archiveOneSeed runs the full crawl of a single seed: its own browser
// session, engine, store, and (optionally) traffic-archive run row.
func archiveOneSeed(ctx context.Context, cfg *config.Config, seed string, domainChanged bool, trafficDB *database.TrafficDB, logger *slog.Logger) (*model.ArchiveReport, error) {
	domain, err := filterDomain(cfg, seed, domainChanged)
	if err != nil {
		return nil, err
	}

	site := siteOverrides(cfg, domain)

	fetchOpts := fetch.Options{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Proxy:      cfg.Proxy,
		UserAgent:  cfg.UserAgent,
		Headers:    site.Headers,
		Cookie:     site.Cookie,
		Logger:     logger,
	}
	session, err := fetch.NewSession(fetchOpts, logger)
	if err != nil {
		return nil, err
	}
	// The session holds a live browser; it must be released on every
	// exit path, including panics in the crawl loop.
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close fetch session", "error", err)
		}
	}()

	overwrite := cfg.Overwrite
	if site.Overwrite != nil {
		overwrite = *site.Overwrite
	}
	store := archive.NewStore(cfg.OutputDir,
		archive.WithOverwrite(overwrite),
		archive.WithStoreLogger(logger),
	)

	delay := cfg.Delay
	if site.DelayMillis > 0 {
		delay = time.Duration(site.DelayMillis) * time.Millisecond
	}

	ignore := cfg.IgnorePatterns
	if len(site.IgnorePatterns) > 0 {
		ignore = site.IgnorePatterns
	}
	follow := cfg.FollowPatterns
	if len(site.FollowPatterns) > 0 {
		follow = site.FollowPatterns
	}

	opts := []crawler.Option{
		crawler.WithLogger(logger),
		crawler.WithPacer(crawler.NewPacer(delay, cfg.Jitter)),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDirResolve(cfg.DirResolve),
		crawler.WithIgnorePatterns(ignore),
		crawler.WithFollowPatterns(follow),
	}
	if cfg.DOMLinks {
		opts = append(opts, crawler.WithExtractor(crawler.DOMExtractor{}))
	}

	var runID int64
	if trafficDB != nil {
		runID, err = trafficDB.BeginRun(ctx, seed, cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to begin traffic run: %w", err)
		}
		opts = append(opts, crawler.WithRecorder(database.NewRunRecorder(trafficDB, runID)))
	}

	engine := crawler.NewEngine(
		fetch.NewStrategy(session, logger),
		store,
		crawler.NewDomainFilter(domain),
		opts...,
	)

	rpt, runErr := engine.Run(ctx, seed, cfg.OutputDir)

	if trafficDB != nil && rpt != nil {
		// Finalize with a fresh context: the crawl context may already
		// be cancelled, and the counters should still land.
		finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := trafficDB.FinishRun(finishCtx, runID, rpt); err != nil {
			logger.Warn("failed to finalize traffic run", "runID", runID, "error", err)
		}
	}

	return rpt, runErr
}

// filterDomain decides which base domain the link filter admits for a
// seed. An explicit --domain wins; otherwise the seed's own host is the
// natural boundary of the crawl.
func filterDomain(cfg *config.Config, seed string, domainChanged bool) (string, error) {
	if domainChanged {
		return cfg.BaseDomain, nil
	}
	u, err := url.Parse(seed)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("cannot derive a base domain from seed %q", seed)
	}
	return u.Hostname(), nil
}

// siteOverrides returns the merged per-site configuration for a domain,
// or a zero SiteConfig when no config file is loaded.
func siteOverrides(cfg *config.Config, domain string) config.SiteConfig {
	if cfg.Sites == nil {
		return config.SiteConfig{}
	}
	return cfg.Sites.GetSiteConfig(domain)
}

// buildArchiveConfig builds the run configuration from flags, arguments,
// and the optional config file.
func buildArchiveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.Protocol, err = cmd.Flags().GetString("protocol"); err != nil {
		return nil, err
	}
	domain, err := cmd.Flags().GetString("domain")
	if err != nil {
		return nil, err
	}
	if domain != "" {
		cfg.BaseDomain = domain
	}
	if cfg.StartHost, err = cmd.Flags().GetString("host"); err != nil {
		return nil, err
	}
	if cfg.StartPath, err = cmd.Flags().GetString("start-path"); err != nil {
		return nil, err
	}
	if cfg.Port, err = cmd.Flags().GetInt("port"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Overwrite, err = cmd.Flags().GetBool("overwrite"); err != nil {
		return nil, err
	}
	if cfg.Delay, err = cmd.Flags().GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Jitter, err = cmd.Flags().GetFloat64("jitter"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = cmd.Flags().GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = cmd.Flags().GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.IgnorePatterns, err = cmd.Flags().GetStringSlice("ignore"); err != nil {
		return nil, err
	}
	if cfg.FollowPatterns, err = cmd.Flags().GetStringSlice("follow"); err != nil {
		return nil, err
	}
	if cfg.DirResolve, err = cmd.Flags().GetBool("dir-resolve"); err != nil {
		return nil, err
	}
	if cfg.DOMLinks, err = cmd.Flags().GetBool("dom-links"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.CaptureTraffic, err = cmd.Flags().GetBool("capture-traffic"); err != nil {
		return nil, err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.TrafficDBDir = dbDir
	}
	if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return nil, err
	}

	for _, arg := range args {
		seed := strings.TrimSpace(arg)
		if seed == "" {
			continue
		}
		if !strings.Contains(seed, "://") {
			seed = cfg.Protocol + "://" + seed
		}
		cfg.Seeds = append(cfg.Seeds, seed)
	}

	// The config file is optional unless explicitly requested.
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		sites, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.Sites = sites
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// outputReports writes the run reports in the selected format to stdout
// or to --report-file.
func outputReports(cmd *cobra.Command, reports []*model.ArchiveReport) error {
	if len(reports) == 0 {
		return nil
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	reportFile, err := cmd.Flags().GetString("report-file")
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if reportFile != "" {
		f, err := os.Create(reportFile) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}
		return enc.Encode(reports)
	}

	var w report.Writer
	if asMarkdown {
		w = report.NewMarkdownWriter(out)
	} else {
		w = report.NewSimpleWriter(out)
	}
	for _, rpt := range reports {
		if rpt == nil {
			continue
		}
		if _, err := w.Write(rpt); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
