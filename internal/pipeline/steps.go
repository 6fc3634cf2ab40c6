package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/crawler"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fetcher"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/htmldoc"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/linkcheck"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
)

// High failure rate thresholds. A crawl where more than half of the pages
// and more than highFailureMinPages pages failed is probably being blocked.
const (
	highFailureRate     = 0.5
	highFailureMinPages = 3
)

// NavigatorFactory opens the navigator for one crawl. Every crawl owns its
// navigator; the crawler closes it when the crawl ends.
type NavigatorFactory func(ctx context.Context) (fetcher.Navigator, error)

// Analyzer inspects one successfully loaded page.
type Analyzer interface {
	// Name returns the analyzer name for logging.
	Name() string

	// Analyze returns the issues found on page.
	Analyze(ctx context.Context, page *model.PageResult, doc htmldoc.Document) []model.Issue
}

// IssueSink receives the pages of an audit while it runs. A page is
// recorded when the crawl collects it and again once its links are
// checked; recording a page again replaces it.
type IssueSink interface {
	RecordPage(ctx context.Context, report *model.AuditReport, page *model.PageResult) error
}

// CrawlStep crawls the audit target and fills report.Pages.
type CrawlStep struct {
	newNavigator NavigatorFactory
	robots       *robots.Loader
	crawlOpts    []crawler.Option
	single       bool
	sink         IssueSink
	logger       *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlRobots sets the loader used to fetch the target's robots.txt.
// Without one every path is allowed.
func WithCrawlRobots(loader *robots.Loader) CrawlStepOption {
	return func(s *CrawlStep) {
		s.robots = loader
	}
}

// WithCrawlOptions passes options through to the crawler.
func WithCrawlOptions(opts ...crawler.Option) CrawlStepOption {
	return func(s *CrawlStep) {
		s.crawlOpts = append(s.crawlOpts, opts...)
	}
}

// WithCrawlSingle fetches only the target page without following links.
func WithCrawlSingle(single bool) CrawlStepOption {
	return func(s *CrawlStep) {
		s.single = single
	}
}

// WithCrawlSink records every page in sink as soon as it is crawled.
func WithCrawlSink(sink IssueSink) CrawlStepOption {
	return func(s *CrawlStep) {
		s.sink = sink
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step that opens navigators with newNavigator.
func NewCrawlStep(newNavigator NavigatorFactory, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		newNavigator: newNavigator,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. It fails when the homepage cannot be loaded
// or when no page returned status 200; pages gathered before a cancellation
// are kept in the report.
func (s *CrawlStep) Do(ctx context.Context, report *model.AuditReport) error {
	if s.newNavigator == nil {
		return ErrNoNavigator
	}

	nav, err := s.newNavigator(ctx)
	if err != nil {
		return fmt.Errorf("open navigator: %w", err)
	}

	var policy robots.Policy = robots.AllowAll{}
	if s.robots != nil && !s.single {
		policy = s.robots.Load(ctx, report.Target)
	}

	opts := append([]crawler.Option{crawler.WithLogger(s.logger)}, s.crawlOpts...)
	opts = append(opts, crawler.WithPageFunc(func(result *model.FetchResult) {
		page := describePage(result)
		report.Pages = append(report.Pages, page)
		recordPage(ctx, s.sink, report, page, s.logger)
	}))
	c, err := crawler.New(report.Target, nav, policy, opts...)
	if err != nil {
		_ = nav.Close() //nolint:errcheck // the crawl never started
		return err
	}

	var crawlErr error
	if s.single {
		c.CrawlSingle(ctx, report.Target)
	} else {
		var stats crawler.Stats
		_, stats, crawlErr = c.Crawl(ctx)
		s.logger.Info("crawl completed",
			"target", report.Target,
			"pages_visited", stats.Visited,
			"pages_failed", stats.Failed,
			"redirects", stats.Redirects,
			"duplicates_discarded", stats.DuplicatesDiscarded,
		)
	}

	if aliases := c.RedirectAliases(); len(aliases) > 0 {
		report.Redirects = aliases
	}

	if crawlErr != nil {
		return crawlErr
	}
	return s.checkCrawl(report)
}

// checkCrawl decides whether the crawl produced anything worth analyzing.
func (s *CrawlStep) checkCrawl(report *model.AuditReport) error {
	if len(report.Pages) > 0 {
		home := report.Pages[0]
		if home.Failed() || home.Error != "" {
			msg := home.Error
			if msg == "" {
				msg = "page returned no content"
			}
			return fmt.Errorf("%w: %s", ErrHomepageFailed, msg)
		}
	}

	var succeeded, failed int
	for _, page := range report.Pages {
		if page.StatusCode == 200 {
			succeeded++
		}
		if page.Failed() || page.Error != "" {
			failed++
		}
	}

	if total := len(report.Pages); total > 0 {
		rate := float64(failed) / float64(total)
		if rate > highFailureRate && failed > highFailureMinPages {
			s.logger.Warn("high failure rate detected, the site may be rate-limiting or blocking requests",
				"target", report.Target,
				"failed", failed,
				"total", total,
			)
		}
	}

	if succeeded == 0 {
		return ErrNoPagesLoaded
	}
	return nil
}

// describePage wraps a fetch result and records its page metadata.
func describePage(result *model.FetchResult) *model.PageResult {
	page := model.NewPageResult(result)
	if result.StatusCode != 200 {
		return page
	}
	page.WordCount = htmldoc.WordCount(result.Text)

	doc, ok := parsePage(page)
	if !ok {
		return page
	}
	page.Title = doc.Title()
	for _, meta := range doc.FindAll("meta", htmldoc.AttrEquals("name", "description")) {
		if content, ok := meta.Attr("content"); ok {
			page.MetaDescription = strings.TrimSpace(content)
			break
		}
	}
	for _, h1 := range doc.FindAll("h1") {
		if text := strings.TrimSpace(h1.Text()); text != "" {
			page.Headings = append(page.Headings, text)
		}
	}
	return page
}

// parsePage parses the markup of a 200 page. Pages without markup or with
// unparsable markup are skipped by the analysis steps.
func parsePage(page *model.PageResult) (htmldoc.Document, bool) {
	if !page.IsHTMLSuccess() {
		return nil, false
	}
	doc, err := htmldoc.Parse(page.HTML)
	if err != nil {
		return nil, false
	}
	return doc, true
}

// StructureStep runs page analyzers over every successfully loaded page.
type StructureStep struct {
	analyzers []Analyzer
	logger    *slog.Logger
}

// StructureStepOption configures a StructureStep.
type StructureStepOption func(*StructureStep)

// WithStructureLogger sets a custom logger for the structure step.
func WithStructureLogger(logger *slog.Logger) StructureStepOption {
	return func(s *StructureStep) {
		s.logger = logger
	}
}

// NewStructureStep creates a step running analyzers in order.
func NewStructureStep(analyzers []Analyzer, opts ...StructureStepOption) *StructureStep {
	s := &StructureStep{
		analyzers: analyzers,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *StructureStep) Name() string {
	return "structure"
}

// Do executes the structure step.
func (s *StructureStep) Do(ctx context.Context, report *model.AuditReport) error {
	for _, page := range report.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, ok := parsePage(page)
		if !ok {
			continue
		}
		for _, analyzer := range s.analyzers {
			issues := analyzer.Analyze(ctx, page, doc)
			page.AddIssues(issues...)
			s.logger.Debug("analyzer completed",
				"analyzer", analyzer.Name(),
				"url", page.URL,
				"issues", len(issues),
			)
		}
	}
	return nil
}

// LinkCheckStep probes the links of every successfully loaded page.
type LinkCheckStep struct {
	checker *linkcheck.Checker
	sink    IssueSink
	logger  *slog.Logger
}

// LinkCheckStepOption configures a LinkCheckStep.
type LinkCheckStepOption func(*LinkCheckStep)

// WithLinkCheckSink records every checked page in sink with its issues.
func WithLinkCheckSink(sink IssueSink) LinkCheckStepOption {
	return func(s *LinkCheckStep) {
		s.sink = sink
	}
}

// WithLinkCheckLogger sets a custom logger for the link check step.
func WithLinkCheckLogger(logger *slog.Logger) LinkCheckStepOption {
	return func(s *LinkCheckStep) {
		s.logger = logger
	}
}

// NewLinkCheckStep creates a link check step. The checker's status cache
// should belong to the current audit run.
func NewLinkCheckStep(checker *linkcheck.Checker, opts ...LinkCheckStepOption) *LinkCheckStep {
	s := &LinkCheckStep{
		checker: checker,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LinkCheckStep) Name() string {
	return "link_check"
}

// Do executes the link check step.
func (s *LinkCheckStep) Do(ctx context.Context, report *model.AuditReport) error {
	var total int
	for _, page := range report.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, ok := parsePage(page)
		if !ok {
			continue
		}
		links := linkcheck.ExtractLinks(doc, page.ResolvedURL(), report.Target)
		issues := s.checker.CheckPage(ctx, page.URL, links)
		page.AddIssues(issues...)
		total += len(issues)
		recordPage(ctx, s.sink, report, page, s.logger)
	}

	s.logger.Info("link check completed",
		"target", report.Target,
		"links_probed", len(s.checker.Checked()),
		"issues", total,
	)
	return ctx.Err()
}

// recordPage stores page in sink. Recording outlives cancellation so an
// interrupted audit keeps what it collected; failures are only logged.
func recordPage(ctx context.Context, sink IssueSink, report *model.AuditReport, page *model.PageResult, logger *slog.Logger) {
	if sink == nil {
		return
	}
	if err := sink.RecordPage(context.WithoutCancel(ctx), report, page); err != nil {
		logger.Warn("failed to record page", "url", page.URL, "error", err)
	}
}

// SummaryStep aggregates the issues of all pages into report.Summary.
type SummaryStep struct{}

// NewSummaryStep creates a summary step.
func NewSummaryStep() *SummaryStep {
	return &SummaryStep{}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, report *model.AuditReport) error {
	report.Summarize()
	return nil
}
