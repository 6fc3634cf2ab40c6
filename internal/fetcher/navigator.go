package fetcher

import (
	"context"
	"errors"
	"time"
)

// Errors returned by navigators.
var (
	// ErrNavigation wraps every failed navigation attempt.
	ErrNavigation = errors.New("navigation failed")

	// ErrSessionClosed is returned when a navigator is used after Close.
	ErrSessionClosed = errors.New("navigator is closed")

	// ErrBrowserStart is returned when the browser cannot be launched.
	ErrBrowserStart = errors.New("failed to start browser")
)

// WaitStrategy selects when a navigation counts as finished.
type WaitStrategy int

const (
	// WaitDOMReady waits until the document has been parsed and the page
	// has settled. It is the normal strategy.
	WaitDOMReady WaitStrategy = iota

	// WaitCommit returns as soon as the main document response arrives,
	// then waits Request.Settle for late content. It is the fallback for
	// pages that never settle.
	WaitCommit
)

// String returns the strategy name used in logs.
func (w WaitStrategy) String() string {
	switch w {
	case WaitDOMReady:
		return "dom_ready"
	case WaitCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Request describes one navigation attempt.
type Request struct {
	// URL is the page to load.
	URL string

	// Strategy is the wait strategy.
	Strategy WaitStrategy

	// Timeout bounds the navigation itself.
	Timeout time.Duration

	// Settle is an extra delay after a WaitCommit navigation before the
	// snapshot is taken.
	Settle time.Duration
}

// Snapshot is what a successful navigation produced.
type Snapshot struct {
	// Status is the HTTP status of the main document, 0 if unknown.
	Status int

	// HTML is the document markup. Empty for non-HTML responses.
	HTML string

	// Text is the visible text of the page.
	Text string

	// FinalURL is the URL the page ended up at.
	FinalURL string
}

// Navigator performs single navigation attempts. Retries and fallbacks are
// the Fetcher's job. A Navigator is owned by one crawl and used from one
// goroutine at a time.
type Navigator interface {
	// Navigate loads req.URL and returns a snapshot. Transport failures and
	// timeouts are returned as errors wrapping ErrNavigation; HTTP error
	// statuses are successful navigations.
	Navigate(ctx context.Context, req Request) (*Snapshot, error)

	// Close releases the navigator's resources. It is safe to call more
	// than once.
	Close() error
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
