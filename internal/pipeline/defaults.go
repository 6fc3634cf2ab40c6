package pipeline

import (
	"net/http"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/auditrun"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/crawler"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fetcher"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/linkcheck"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
)

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxPages is the maximum number of pages to visit.
	MaxPages int

	// CrawlDelay is the base delay between page loads.
	CrawlDelay time.Duration

	// FetchTimeout is the base navigation timeout.
	FetchTimeout time.Duration

	// MaxRetries is the number of retries after a failed fetch.
	MaxRetries int

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string

	// FollowPatterns restrict crawling to matching URL paths.
	FollowPatterns []string

	// Progress is called once per dequeued page.
	Progress crawler.ProgressFunc

	// Single fetches only the target page.
	Single bool

	// Robots loads the target's robots.txt. Nil allows every path.
	Robots *robots.Loader

	// CheckExternal enables probing of links to other sites.
	CheckExternal bool

	// LinkTimeout bounds each link probe.
	LinkTimeout time.Duration

	// LinkConcurrency limits probes in flight per page.
	LinkConcurrency int

	// LinkRatePerHost throttles probes per host. Zero disables it.
	LinkRatePerHost float64

	// UserAgent is sent with link probes.
	UserAgent string

	// LinkClient is the HTTP client used for link probes.
	LinkClient *http.Client

	// Analyzers run on every successfully loaded page.
	Analyzers []Analyzer

	// Sink receives pages as they are crawled and checked. Nil skips
	// recording.
	Sink IssueSink

	// CrawlOptions are applied to the crawler after the options above.
	CrawlOptions []crawler.Option
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxPages sets the maximum pages to crawl.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// WithPipelineCrawlDelay sets the base delay between page loads.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineFetchTimeout sets the base navigation timeout.
func WithPipelineFetchTimeout(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FetchTimeout = timeout
	}
}

// WithPipelineMaxRetries sets the number of fetch retries.
func WithPipelineMaxRetries(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxRetries = n
	}
}

// WithPipelineIgnorePatterns sets URL patterns to skip during crawling.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL patterns to follow during crawling.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// WithPipelineProgress sets the crawl progress callback.
func WithPipelineProgress(fn crawler.ProgressFunc) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Progress = fn
	}
}

// WithPipelineSingle audits only the target page.
func WithPipelineSingle(single bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Single = single
	}
}

// WithPipelineRobots sets the robots.txt loader.
func WithPipelineRobots(loader *robots.Loader) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Robots = loader
	}
}

// WithPipelineCheckExternal enables probing of external links.
func WithPipelineCheckExternal(enabled bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CheckExternal = enabled
	}
}

// WithPipelineLinkTimeout sets the per-probe timeout.
func WithPipelineLinkTimeout(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LinkTimeout = timeout
	}
}

// WithPipelineLinkConcurrency sets the probes in flight per page.
func WithPipelineLinkConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LinkConcurrency = n
	}
}

// WithPipelineLinkRate throttles link probes per host.
func WithPipelineLinkRate(rps float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LinkRatePerHost = rps
	}
}

// WithPipelineUserAgent sets the User-Agent of link probes.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.UserAgent = userAgent
	}
}

// WithPipelineLinkClient sets the HTTP client of link probes.
func WithPipelineLinkClient(client *http.Client) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LinkClient = client
	}
}

// WithPipelineAnalyzers adds page analyzers after the built-in ones.
func WithPipelineAnalyzers(analyzers ...Analyzer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Analyzers = append(c.Analyzers, analyzers...)
	}
}

// WithPipelineSink records pages in sink while the audit runs.
func WithPipelineSink(sink IssueSink) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Sink = sink
	}
}

// WithPipelineCrawlOptions passes extra options to the crawler.
func WithPipelineCrawlOptions(opts ...crawler.Option) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlOptions = append(c.CrawlOptions, opts...)
	}
}

// DefaultPipeline creates the standard audit pipeline for run: crawl,
// structure analysis, link checking and summary. With a sink, pages are
// recorded as the crawl and link check steps finish them. Link statuses
// are cached in the run.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineMaxPages, etc).
func DefaultPipeline(run *auditrun.Run, newNavigator NavigatorFactory, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxPages:        crawler.DefaultMaxPages,
		CrawlDelay:      crawler.DefaultDelay,
		FetchTimeout:    fetcher.DefaultTimeout,
		MaxRetries:      fetcher.DefaultMaxRetries,
		LinkTimeout:     linkcheck.DefaultTimeout,
		LinkConcurrency: linkcheck.DefaultConcurrency,
		Analyzers:       []Analyzer{linkcheck.StructureAnalyzer{}},
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	crawlOpts := []crawler.Option{
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithPatterns(cfg.IgnorePatterns, cfg.FollowPatterns),
		crawler.WithFetchOptions(
			fetcher.WithTimeout(cfg.FetchTimeout),
			fetcher.WithMaxRetries(cfg.MaxRetries),
		),
	}
	if cfg.Progress != nil {
		crawlOpts = append(crawlOpts, crawler.WithProgress(cfg.Progress))
	}
	crawlOpts = append(crawlOpts, cfg.CrawlOptions...)

	checkOpts := []linkcheck.Option{
		linkcheck.WithCheckExternal(cfg.CheckExternal),
		linkcheck.WithTimeout(cfg.LinkTimeout),
		linkcheck.WithConcurrency(cfg.LinkConcurrency),
		linkcheck.WithHostRate(cfg.LinkRatePerHost, 1),
		linkcheck.WithUserAgent(cfg.UserAgent),
		linkcheck.WithHTTPClient(cfg.LinkClient),
		linkcheck.WithLogger(p.logger),
	}

	p.AddSteps(
		NewCrawlStep(newNavigator,
			WithCrawlRobots(cfg.Robots),
			WithCrawlSingle(cfg.Single),
			WithCrawlOptions(crawlOpts...),
			WithCrawlSink(cfg.Sink),
			WithCrawlLogger(p.logger),
		),
		NewStructureStep(cfg.Analyzers, WithStructureLogger(p.logger)),
		NewLinkCheckStep(linkcheck.New(run.Cache(), checkOpts...),
			WithLinkCheckSink(cfg.Sink),
			WithLinkCheckLogger(p.logger),
		),
		NewSummaryStep(),
	)
	return p
}
