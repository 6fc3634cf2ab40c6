// Package fetcher loads single pages for the crawler.
//
// A Fetcher drives a Navigator (a headless browser session or a plain HTTP
// client) through a timeout and retry ladder:
//
//	attempt 0: dom_ready with timeout T, on failure commit with 2T plus settle
//	attempt n: dom_ready with timeout T*(1+n)
//	between attempts: wait 5s*(n+1), at most MaxRetries retries
//
// A fetch never returns an error. When every attempt fails the result
// carries status 0 and the last error message.
package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/model"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// Ladder defaults.
const (
	// DefaultTimeout is the base navigation timeout T.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2

	// DefaultBackoff is multiplied by the attempt number between retries.
	DefaultBackoff = 5 * time.Second

	// DefaultSettleDelay is the grace period after a commit navigation.
	DefaultSettleDelay = 2 * time.Second
)

// Fetcher loads pages through a Navigator with retries.
type Fetcher struct {
	nav        Navigator
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	settle     time.Duration
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the base navigation timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed fetch is retried.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithBackoff sets the backoff unit between retries.
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoff = d
		}
	}
}

// WithSettleDelay sets the grace period after a commit navigation.
func WithSettleDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.settle = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithSleep replaces the backoff sleep. Tests use it to avoid real waits.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// New creates a Fetcher over nav.
func New(nav Navigator, opts ...Option) *Fetcher {
	f := &Fetcher{
		nav:        nav,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		settle:     DefaultSettleDelay,
		sleep:      SleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Navigator returns the underlying navigator.
func (f *Fetcher) Navigator() Navigator {
	return f.nav
}

// Fetch loads rawURL and returns the final attempt's result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *model.FetchResult {
	target := urlnorm.MustNormalize(rawURL)
	result := &model.FetchResult{URL: target}

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		result.Attempts = attempt + 1
		timeout := f.timeout * time.Duration(1+attempt)
		start := f.now()

		snap, err := f.nav.Navigate(ctx, Request{
			URL:      target,
			Strategy: WaitDOMReady,
			Timeout:  timeout,
		})
		if err != nil && attempt == 0 && ctx.Err() == nil {
			f.logger.Warn("navigation failed, retrying with commit strategy",
				"url", target,
				"error", err,
			)
			navErr := err
			snap, err = f.nav.Navigate(ctx, Request{
				URL:      target,
				Strategy: WaitCommit,
				Timeout:  2 * timeout,
				Settle:   f.settle,
			})
			if err != nil {
				f.logger.Debug("commit strategy failed", "url", target, "error", err)
				err = navErr
			}
		}

		if err == nil {
			f.fill(result, snap, f.now().Sub(start))
			return result
		}

		lastErr = err
		f.logger.Error("page fetch failed",
			"url", target,
			"attempt", attempt+1,
			"max_attempts", f.maxRetries+1,
			"error", err,
		)

		if ctx.Err() != nil || attempt == f.maxRetries {
			break
		}

		wait := f.backoff * time.Duration(attempt+1)
		f.logger.Info("retrying page fetch", "url", target, "wait", wait)
		if err := f.sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	result.StatusCode = 0
	result.FetchedAt = f.now()
	if lastErr != nil {
		result.Error = lastErr.Error()
	}
	return result
}

// fill copies a snapshot into result.
func (f *Fetcher) fill(result *model.FetchResult, snap *Snapshot, elapsed time.Duration) {
	result.StatusCode = snap.Status
	result.HTML = snap.HTML
	result.Text = snap.Text
	result.LoadTimeMS = float64(elapsed) / float64(time.Millisecond)
	result.FetchedAt = f.now()
	result.Error = ""

	if snap.FinalURL == "" {
		return
	}
	if final, err := urlnorm.Normalize(snap.FinalURL); err == nil && final != result.URL {
		result.FinalURL = final
	}
}
