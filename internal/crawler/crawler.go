package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fetcher"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/frontier"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// Crawl defaults.
const (
	// DefaultMaxPages is the page budget of a crawl.
	DefaultMaxPages = 100

	// DefaultDelay is the base wait between fetches.
	DefaultDelay = 3 * time.Second

	// MinDelay is the floor applied to any configured delay.
	MinDelay = 2 * time.Second

	// DefaultJitterMin and DefaultJitterMax bound the random extra wait.
	DefaultJitterMin = 500 * time.Millisecond
	DefaultJitterMax = 1500 * time.Millisecond
)

// ProgressFunc is called before each fetch with the number of visited URLs
// (including the current one), the page budget and the current URL.
type ProgressFunc func(done, total int, url string)

// PageFunc receives every collected result as soon as it is fetched.
type PageFunc func(result *model.FetchResult)

// Stats summarizes one crawl.
type Stats struct {
	// Visited is the final size of the visited set, redirect targets
	// included.
	Visited int

	// Fetched is the number of fetches performed.
	Fetched int

	// Redirects counts fetches whose final URL differed from the request.
	Redirects int

	// DuplicatesDiscarded counts redirects to an already collected page.
	DuplicatesDiscarded int

	// Failed counts collected results with status 0.
	Failed int
}

// Crawler performs a breadth-first crawl of one site.
type Crawler struct {
	// root is the normalized starting URL.
	root string

	// nav loads pages. The crawler closes it when a crawl ends.
	nav fetcher.Navigator

	// policy holds the robots rules for the site.
	policy robots.Policy

	maxPages  int
	delay     time.Duration
	jitterMin time.Duration
	jitterMax time.Duration

	ignorePatterns []string
	followPatterns []string

	progress  ProgressFunc
	onPage    PageFunc
	logger    *slog.Logger
	fetchOpts []fetcher.Option
	sleep     func(ctx context.Context, d time.Duration) error

	aliases map[string][]string
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxPages sets the page budget.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithDelay sets the base delay between fetches. Values below MinDelay are
// raised to MinDelay.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = max(d, MinDelay)
	}
}

// WithJitter sets the bounds of the random extra wait.
func WithJitter(minJitter, maxJitter time.Duration) Option {
	return func(c *Crawler) {
		if minJitter < 0 || maxJitter < minJitter {
			return
		}
		c.jitterMin = minJitter
		c.jitterMax = maxJitter
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Crawler) {
		c.progress = fn
	}
}

// WithPageFunc sets a callback run for every collected result, in crawl
// order. Discarded redirect duplicates are not passed on.
func WithPageFunc(fn PageFunc) Option {
	return func(c *Crawler) {
		c.onPage = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithPatterns sets glob patterns for paths to skip and paths to follow.
// Empty follow patterns follow everything not ignored.
func WithPatterns(ignore, follow []string) Option {
	return func(c *Crawler) {
		c.ignorePatterns = ignore
		c.followPatterns = follow
	}
}

// WithFetchOptions configures the underlying fetcher (timeout, retries).
func WithFetchOptions(opts ...fetcher.Option) Option {
	return func(c *Crawler) {
		c.fetchOpts = append(c.fetchOpts, opts...)
	}
}

// WithSleep replaces the politeness sleep. Tests use it to skip waits.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Crawler) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New creates a crawler for the site at root. A nil policy allows every
// path.
func New(root string, nav fetcher.Navigator, policy robots.Policy, opts ...Option) (*Crawler, error) {
	normalized, err := urlnorm.Normalize(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRoot, root, err)
	}
	if policy == nil {
		policy = robots.AllowAll{}
	}

	c := &Crawler{
		root:      normalized,
		nav:       nav,
		policy:    policy,
		maxPages:  DefaultMaxPages,
		delay:     DefaultDelay,
		jitterMin: DefaultJitterMin,
		jitterMax: DefaultJitterMax,
		sleep:     fetcher.SleepContext,
		aliases:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Root returns the normalized crawl root.
func (c *Crawler) Root() string {
	return c.root
}

// Crawl runs the crawl and closes the navigator when done. On cancellation
// it returns the results gathered so far together with the context error.
func (c *Crawler) Crawl(ctx context.Context) ([]*model.FetchResult, Stats, error) {
	defer c.closeNavigator()

	f := c.newFetcher()
	fr := frontier.New(c.root, c.policy,
		frontier.WithIgnorePatterns(c.ignorePatterns),
		frontier.WithFollowPatterns(c.followPatterns),
	)
	fr.Seed(c.root)

	var (
		results   []*model.FetchResult
		stats     Stats
		finalSeen = make(map[string]struct{})
	)
	c.aliases = make(map[string][]string)

	for !fr.Empty() && fr.VisitedCount() < c.maxPages {
		if err := ctx.Err(); err != nil {
			stats.Visited = fr.VisitedCount()
			return results, stats, err
		}

		target, _ := fr.Dequeue()
		if !fr.MarkVisited(target) {
			continue
		}

		if c.progress != nil {
			c.progress(fr.VisitedCount(), c.maxPages, target)
		}
		c.logger.Info("crawling page",
			"visited", fr.VisitedCount(),
			"max_pages", c.maxPages,
			"url", target,
		)

		result := f.Fetch(ctx, target)
		stats.Fetched++

		if c.collect(result, fr, finalSeen, &stats) {
			results = append(results, result)
			if c.onPage != nil {
				c.onPage(result)
			}
		}

		// Every fetch reached the host, duplicates included.
		if err := c.sleep(ctx, c.politenessDelay()); err != nil {
			stats.Visited = fr.VisitedCount()
			return results, stats, err
		}
	}

	stats.Visited = fr.VisitedCount()
	if stats.Redirects > 0 {
		c.logger.Info("crawl finished with redirects",
			"redirects", stats.Redirects,
			"duplicates_discarded", stats.DuplicatesDiscarded,
		)
	}
	return results, stats, nil
}

// collect records redirect bookkeeping for result and enqueues its links.
// It reports false when result is a redirect to an already collected page.
func (c *Crawler) collect(result *model.FetchResult, fr *frontier.Frontier, finalSeen map[string]struct{}, stats *Stats) bool {
	if result.WasRedirect() {
		stats.Redirects++
		c.aliases[result.FinalURL] = append(c.aliases[result.FinalURL], result.URL)

		if _, seen := finalSeen[result.FinalURL]; seen {
			stats.DuplicatesDiscarded++
			c.logger.Info("skipping duplicate redirect", "url", result.URL, "final_url", result.FinalURL)
			return false
		}
		fr.MarkVisited(result.FinalURL)
		c.logger.Info("redirect", "url", result.URL, "final_url", result.FinalURL)
	}
	finalSeen[result.ResolvedURL()] = struct{}{}

	if result.Failed() {
		stats.Failed++
	}
	if result.StatusCode == 200 && result.HTML != "" {
		for _, link := range extractLinks(result.HTML, result.ResolvedURL()) {
			fr.Enqueue(link)
		}
	}
	return true
}

// CrawlSingle fetches one URL without following links and closes the
// navigator.
func (c *Crawler) CrawlSingle(ctx context.Context, rawURL string) *model.FetchResult {
	defer c.closeNavigator()
	result := c.newFetcher().Fetch(ctx, rawURL)
	if c.onPage != nil {
		c.onPage(result)
	}
	return result
}

// RedirectAliases maps each final URL reached through a redirect in the
// last crawl to the requested URLs that led there, in fetch order. The
// returned map is a copy.
func (c *Crawler) RedirectAliases() map[string][]string {
	out := make(map[string][]string, len(c.aliases))
	for final, requested := range c.aliases {
		out[final] = append([]string(nil), requested...)
	}
	return out
}

func (c *Crawler) newFetcher() *fetcher.Fetcher {
	opts := append([]fetcher.Option{fetcher.WithLogger(c.logger)}, c.fetchOpts...)
	return fetcher.New(c.nav, opts...)
}

func (c *Crawler) closeNavigator() {
	if c.nav == nil {
		return
	}
	if err := c.nav.Close(); err != nil {
		c.logger.Warn("failed to close navigator", "error", err)
	}
}

// politenessDelay returns delay plus a uniform jitter in [jitterMin, jitterMax].
func (c *Crawler) politenessDelay() time.Duration {
	jitter := c.jitterMin
	if span := c.jitterMax - c.jitterMin; span > 0 {
		jitter += time.Duration(rand.Int64N(int64(span) + 1))
	}
	return c.delay + jitter
}
