package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/auditrun"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/config"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/database"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fetcher"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/pipeline"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/report"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
)

// errAuditsFailed is returned when at least one audit did not complete.
var errAuditsFailed = errors.New("some audits failed")

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit URL [URL...]",
		Short: "Crawl a website and report quality issues",
		Long: `Audit crawls a website in a real browser, checks every link it finds and
reports broken links, empty or javascript-only links and thin pages.

The crawl stays on the target's host, honors robots.txt and waits between
page loads. Results are stored so that later audits can be compared with
'sitequality history'.

Examples:
  # Audit a site
  sitequality audit https://example.com

  # Audit only the home page
  sitequality audit --single https://example.com

  # Audit without a browser, 20 pages at most
  sitequality audit --engine http --max-pages 20 https://example.com

  # Audit two sites and write a Markdown report
  sitequality audit --markdown -o report.md https://a.example https://b.example

Configuration file (.sitequality) example:
  defaults:
    ignore_patterns: ["/search*"]
  sites:
    www.example.com:
      cookie: "SESS=abc123"
      max_pages: 50`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAuditCmd,
	}

	f := cmd.Flags()
	f.String("engine", config.DefaultEngine, "Page engine: browser or http")
	f.Bool("headless", true, "Run the browser without a window")
	f.DurationP("timeout", "t", config.DefaultTimeout, "Base page load timeout")
	f.IntP("max-pages", "p", config.DefaultMaxPages, "Maximum number of pages to crawl per site")
	f.Int("retries", config.DefaultMaxRetries, "Retries after a failed page load")
	f.Duration("delay", config.DefaultCrawlDelay, "Base delay between page loads")
	f.BoolP("single", "s", false, "Audit only the given page without following links")
	f.String("robots", config.DefaultRobotsMode, "robots.txt handling: simple, standard or off")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header")
	f.Bool("check-external", true, "Check links to other sites")
	f.Duration("link-timeout", config.DefaultLinkTimeout, "Timeout of each link check")
	f.Int("link-concurrency", config.DefaultLinkConcurrency, "Link checks in flight per page")
	f.Float64("link-rate", 0, "Link checks per second per host (0 = unlimited)")
	f.IntP("batch", "b", config.DefaultBatchSize, "Number of sites audited at once")
	f.StringP("config", "c", "", "Configuration file path (default: .sitequality in current or home directory)")
	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write report to the given file (creates directories if needed)")
	f.String("db-dir", config.XDGDataDir(), "Directory of the audit database")
	f.Bool("no-db", false, "Do not store audit results")

	return cmd
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from defaults, the configuration file and
// command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	// Flag lookups only fail for undefined names; keep the first failure.
	var flagErr error
	keep := func(err error) { flagErr = cmp.Or(flagErr, err) }
	str := func(name string) string { v, err := f.GetString(name); keep(err); return v }
	boolean := func(name string) bool { v, err := f.GetBool(name); keep(err); return v }
	integer := func(name string) int { v, err := f.GetInt(name); keep(err); return v }
	duration := func(name string) time.Duration { v, err := f.GetDuration(name); keep(err); return v }

	cfg.Engine = str("engine")
	cfg.Headless = boolean("headless")
	cfg.Timeout = duration("timeout")
	cfg.MaxPages = integer("max-pages")
	cfg.MaxRetries = integer("retries")
	cfg.CrawlDelay = duration("delay")
	cfg.Single = boolean("single")
	cfg.RobotsMode = str("robots")
	cfg.UserAgent = str("user-agent")
	cfg.CheckExternal = boolean("check-external")
	cfg.LinkTimeout = duration("link-timeout")
	cfg.LinkConcurrency = integer("link-concurrency")
	cfg.BatchSize = integer("batch")
	cfg.ConfigFilePath = str("config")
	cfg.JSONReport = boolean("json")
	cfg.MarkdownReport = boolean("markdown")
	cfg.ReportFile = str("output")
	cfg.DBDir = str("db-dir")
	cfg.SaveToDB = !boolean("no-db")

	rate, err := f.GetFloat64("link-rate")
	keep(err)
	cfg.LinkRatePerHost = rate

	if flagErr != nil {
		return nil, flagErr
	}

	files, err := loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.SiteConfigs = files
	cfg.Targets = args

	return cfg, nil
}

// loadSiteConfigs loads the configuration file. A missing file is an error
// only when its path was given explicitly.
func loadSiteConfigs(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	files, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return files, nil
}

// runAudit audits every target, writes one report per target and stores the
// results when a database is configured.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	var db *database.AuditDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	out, closeOut, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOut()
	writer := newReportWriter(cfg, out)

	multi := len(cfg.Targets) > 1
	bp := pipeline.NewBatchProcessor(
		newPipelineFactory(cfg, db, logger, stderr, multi),
		pipeline.WithConcurrency(min(cfg.BatchSize, len(cfg.Targets))),
		pipeline.WithBatchLogger(logger),
	)

	start := time.Now()
	var (
		mu     sync.Mutex
		failed int
	)
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(r *model.AuditReport, run *auditrun.Run, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(stderr, "[%d/%d] %s: %s\n", index+1, len(cfg.Targets), r.Target, statusLine(r))
		if r.Status != model.StatusCompleted {
			failed++
		}

		if _, err := writer.Write(r); err != nil {
			logger.Error("report failed", "target", r.Target, "error", err)
		}
		saveAudit(ctx, db, r, run, logger)
	})

	if multi {
		fmt.Fprintf(stderr, "Audited %d sites in %s\n", len(cfg.Targets), time.Since(start).Round(time.Millisecond))
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errAuditsFailed, failed, len(cfg.Targets))
	}
	return nil
}

func statusLine(r *model.AuditReport) string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Status == model.StatusFailed:
		return "failed: " + r.Error
	case r.Summary != nil:
		return fmt.Sprintf("%d pages, %d issues, score %.1f", r.Summary.TotalPages, r.Summary.TotalIssues, r.Summary.OverallScore)
	default:
		return r.Status
	}
}

// newPipelineFactory builds the pipeline of each audit with the site
// configuration of its target.
func newPipelineFactory(cfg *config.Config, db *database.AuditDB, logger *slog.Logger, progress io.Writer, prefixed bool) pipeline.PipelineFactory {
	return func(run *auditrun.Run) *pipeline.Pipeline {
		siteCfg := cfg.ForSite(run.Target)
		site := cfg.Site(run.Target)
		mode, _ := robots.ParseMode(siteCfg.RobotsMode)

		opts := []pipeline.DefaultPipelineOption{
			pipeline.WithPipelineMaxPages(siteCfg.MaxPages),
			pipeline.WithPipelineCrawlDelay(siteCfg.CrawlDelay),
			pipeline.WithPipelineFetchTimeout(siteCfg.Timeout),
			pipeline.WithPipelineMaxRetries(siteCfg.MaxRetries),
			pipeline.WithPipelineIgnorePatterns(site.IgnorePatterns),
			pipeline.WithPipelineFollowPatterns(site.FollowPatterns),
			pipeline.WithPipelineSingle(siteCfg.Single),
			pipeline.WithPipelineRobots(robots.NewLoader(
				robots.WithMode(mode),
				robots.WithUserAgent(siteCfg.UserAgent),
				robots.WithLogger(logger),
			)),
			pipeline.WithPipelineCheckExternal(siteCfg.CheckExternal),
			pipeline.WithPipelineLinkTimeout(siteCfg.LinkTimeout),
			pipeline.WithPipelineLinkConcurrency(siteCfg.LinkConcurrency),
			pipeline.WithPipelineLinkRate(siteCfg.LinkRatePerHost),
			pipeline.WithPipelineUserAgent(siteCfg.UserAgent),
			pipeline.WithPipelineProgress(progressPrinter(progress, run.Target, prefixed)),
		}
		if db != nil {
			opts = append(opts, pipeline.WithPipelineSink(db))
		}

		return pipeline.DefaultPipeline(run,
			navigatorFactory(siteCfg, site.RequestHeaders(), logger),
			[]pipeline.Option{pipeline.WithLogger(logger.With("audit", run.ID))},
			opts...,
		)
	}
}

// navigatorFactory opens the page engine selected by cfg.Engine.
func navigatorFactory(cfg *config.Config, headers map[string]string, logger *slog.Logger) pipeline.NavigatorFactory {
	if cfg.Engine == config.EngineHTTP {
		return func(context.Context) (fetcher.Navigator, error) {
			return fetcher.NewHTTPNavigator(
				fetcher.WithHTTPUserAgent(cfg.UserAgent),
				fetcher.WithHTTPHeaders(headers),
				fetcher.WithMaxBodySize(cfg.MaxBodySize),
				fetcher.WithHTTPLogger(logger),
			), nil
		}
	}
	return func(ctx context.Context) (fetcher.Navigator, error) {
		session, err := fetcher.NewBrowserSession(ctx,
			fetcher.WithHeadless(cfg.Headless),
			fetcher.WithBrowserUserAgent(cfg.UserAgent),
			fetcher.WithBrowserHeaders(headers),
			fetcher.WithBrowserLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// progressPrinter reports crawl progress on w. With several concurrent
// audits every line carries the site's host.
func progressPrinter(w io.Writer, target string, prefixed bool) func(done, total int, pageURL string) {
	prefix := ""
	if prefixed {
		if u, err := url.Parse(target); err == nil {
			prefix = u.Host + " "
		}
	}
	return func(done, total int, pageURL string) {
		fmt.Fprintf(w, "%s[%d/%d] %s\n", prefix, done, total, pageURL)
	}
}

// newReportWriter selects the writer for the configured format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out)
	}
}

// openOutput returns the report destination. Report files are created with
// owner-only permissions since pages may be behind a login.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// saveAudit finalizes the audit in the database. It runs even after an
// interrupt so that partial results are kept.
func saveAudit(ctx context.Context, db *database.AuditDB, r *model.AuditReport, run *auditrun.Run, logger *slog.Logger) {
	if db == nil || run == nil {
		return
	}
	if err := db.SaveAudit(context.WithoutCancel(ctx), r, run.LinkStatuses()); err != nil {
		logger.Error("failed to save audit", "target", r.Target, "error", err)
		return
	}
	logger.Debug("audit saved", "id", r.ID, "target", r.Target)
}
