package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fingerprint"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// Checker defaults.
const (
	// DefaultTimeout bounds a single link probe.
	DefaultTimeout = 10 * time.Second

	// DefaultConcurrency is the number of probes in flight per page.
	DefaultConcurrency = 16
)

// Checker probes links and turns failures into issues.
type Checker struct {
	cache         *StatusCache
	client        *http.Client
	checkExternal bool
	timeout       time.Duration
	concurrency   int
	userAgent     string
	logger        *slog.Logger

	// hostRate and hostBurst configure per-host limiters. Zero disables
	// throttling.
	hostRate  rate.Limit
	hostBurst int

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter

	group singleflight.Group

	checkedMu sync.Mutex
	checked   []string
}

// Option configures a Checker.
type Option func(*Checker)

// WithCheckExternal enables probing of links to other sites.
func WithCheckExternal(enabled bool) Option {
	return func(c *Checker) {
		c.checkExternal = enabled
	}
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConcurrency limits the probes in flight for one page.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithHostRate throttles probes to rps requests per second per host with
// the given burst. rps <= 0 disables throttling.
func WithHostRate(rps float64, burst int) Option {
	return func(c *Checker) {
		if rps <= 0 {
			c.hostRate = 0
			return
		}
		c.hostRate = rate.Limit(rps)
		c.hostBurst = max(burst, 1)
	}
}

// WithHTTPClient sets the client used for probes. Its redirect policy
// applies; the default follows redirects.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// WithUserAgent overrides the probe user agent.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker recording statuses in cache. A nil cache gets a
// fresh one.
func New(cache *StatusCache, opts ...Option) *Checker {
	if cache == nil {
		cache = NewStatusCache()
	}
	c := &Checker{
		cache:       cache,
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		userAgent:   fingerprint.UserAgent,
		limiters:    make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Cache returns the status cache.
func (c *Checker) Cache() *StatusCache {
	return c.cache
}

// Checked returns the URLs probed over the network so far, in completion
// order.
func (c *Checker) Checked() []string {
	c.checkedMu.Lock()
	defer c.checkedMu.Unlock()
	return append([]string(nil), c.checked...)
}

// probeOutcome is the result of one network probe.
type probeOutcome struct {
	status int
	err    error
}

// CheckPage probes the links found on one page and returns the issues in
// link order, followed by manual-review issues. It returns after every
// probe has finished.
func (c *Checker) CheckPage(ctx context.Context, pageURL string, links []model.LinkRecord) []model.Issue {
	var (
		manual    []model.LinkRecord
		checkable []model.LinkRecord
		pending   []string
		queued    = make(map[string]struct{})
	)
	for _, link := range links {
		if !link.IsInternal() && link.BlocksBots {
			manual = append(manual, link)
			continue
		}
		if !link.IsInternal() && !c.checkExternal {
			continue
		}
		checkable = append(checkable, link)

		if _, ok := c.cache.Get(link.URL); ok {
			continue
		}
		if _, ok := queued[link.URL]; !ok {
			queued[link.URL] = struct{}{}
			pending = append(pending, link.URL)
		}
	}

	outcomes := make(map[string]probeOutcome, len(pending))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, url := range pending {
		g.Go(func() error {
			status, err := c.probe(ctx, url)
			mu.Lock()
			outcomes[url] = probeOutcome{status: status, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var issues []model.Issue
	for _, link := range checkable {
		if out, ok := outcomes[link.URL]; ok {
			switch {
			case out.err != nil:
				if ctx.Err() == nil {
					issues = append(issues, unreachableLinkIssue(link, out.err))
				}
			case out.status >= 400:
				issues = append(issues, brokenLinkIssue(link, out.status))
			}
			continue
		}
		if status, ok := c.cache.Get(link.URL); ok && status >= 400 {
			issues = append(issues, brokenLinkIssue(link, status))
		}
	}

	for _, link := range manual {
		issues = append(issues, manualCheckIssue(link))
	}

	c.logger.Debug("page links checked",
		"url", pageURL,
		"links", len(links),
		"probed", len(pending),
		"issues", len(issues),
	)
	return issues
}

// probe returns the status of url, collapsing concurrent probes of the same
// URL into one request.
func (c *Checker) probe(ctx context.Context, url string) (int, error) {
	v, err, _ := c.group.Do(url, func() (any, error) {
		if status, ok := c.cache.Get(url); ok {
			return status, nil
		}

		status, err := c.head(ctx, url)
		if err != nil && ctx.Err() != nil {
			// Cancelled probes say nothing about the link.
			return 0, err
		}
		c.cache.Set(url, status)

		c.checkedMu.Lock()
		c.checked = append(c.checked, url)
		c.checkedMu.Unlock()

		if err != nil {
			c.logger.Debug("link unreachable", "url", url, "error", err)
		}
		return status, err
	})
	status, _ := v.(int)
	return status, err
}

// head issues one HEAD request with browser headers.
func (c *Checker) head(ctx context.Context, url string) (int, error) {
	if err := c.wait(ctx, url); err != nil {
		return 0, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	fingerprint.Apply(req, c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return 0, fmt.Errorf("timeout after %s", c.timeout)
		}
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// wait blocks on the per-host limiter, if throttling is enabled.
func (c *Checker) wait(ctx context.Context, url string) error {
	if c.hostRate == 0 {
		return nil
	}
	host := urlnorm.Hostname(url)

	c.limitersMu.Lock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(c.hostRate, c.hostBurst)
		c.limiters[host] = limiter
	}
	c.limitersMu.Unlock()

	return limiter.Wait(ctx)
}
