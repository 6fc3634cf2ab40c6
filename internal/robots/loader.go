package robots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fingerprint"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

const (
	// robotsPath is the well-known location of robots.txt.
	robotsPath = "/robots.txt"

	// maxBodyBytes caps how much of robots.txt is read.
	maxBodyBytes = 512 * 1024

	// defaultTimeout bounds the robots.txt request.
	defaultTimeout = 30 * time.Second
)

// Loader fetches robots.txt and builds a Policy from it.
type Loader struct {
	client    *http.Client
	mode      Mode
	userAgent string
	logger    *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used to fetch robots.txt.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithMode selects the robots interpretation mode.
func WithMode(m Mode) LoaderOption {
	return func(l *Loader) {
		l.mode = m
	}
}

// WithUserAgent sets the user agent used for the request and for group
// matching in standard mode.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader. The default mode is ModeSimple.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:    &http.Client{Timeout: defaultTimeout},
		mode:      ModeSimple,
		userAgent: fingerprint.UserAgent,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load fetches {origin}/robots.txt for baseURL and returns the resulting
// policy. Any failure yields a policy that allows everything: a missing or
// broken robots.txt must never stop an audit.
func (l *Loader) Load(ctx context.Context, baseURL string) Policy {
	if l.mode == ModeOff {
		return AllowAll{}
	}

	origin, err := urlnorm.Origin(baseURL)
	if err != nil {
		l.logger.Warn("robots.txt skipped, invalid base url", "url", baseURL, "error", err)
		return AllowAll{}
	}

	body, err := l.fetch(ctx, origin+robotsPath)
	if err != nil {
		l.logger.Warn("could not fetch robots.txt, crawling unrestricted", "origin", origin, "error", err)
		return AllowAll{}
	}

	if l.mode == ModeStandard {
		policy, ok := ParseStandard(body, l.userAgent)
		if !ok {
			l.logger.Warn("could not parse robots.txt, crawling unrestricted", "origin", origin)
			return AllowAll{}
		}
		l.logger.Debug("robots.txt loaded", "origin", origin, "mode", l.mode)
		return policy
	}

	set := Parse(string(body))
	l.logger.Debug("robots.txt loaded", "origin", origin, "mode", l.mode, "disallowed", set.Len())
	return set
}

// fetch returns the robots.txt body. Only a 200 response counts.
func (l *Loader) fetch(ctx context.Context, robotsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	fingerprint.Apply(req, l.userAgent)
	req.Header.Set("Accept", "text/plain,*/*;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	return body, nil
}
