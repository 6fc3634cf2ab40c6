package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no site URL was given.
	ErrNoTarget = errors.New("no target specified: provide at least one site URL")

	// ErrInvalidTimeout is returned when the page load timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLinkTimeout is returned when the link probe timeout is not positive.
	ErrInvalidLinkTimeout = errors.New("invalid link timeout: must be positive")

	// ErrInvalidLinkConcurrency is returned when the link probe limit is not positive.
	ErrInvalidLinkConcurrency = errors.New("invalid link concurrency: must be positive")

	// ErrInvalidLinkRate is returned when the per-host link rate is negative.
	ErrInvalidLinkRate = errors.New("invalid link rate: must be non-negative")

	// ErrInvalidEngine is returned for an unknown page engine.
	ErrInvalidEngine = errors.New("invalid engine: must be browser or http")

	// ErrInvalidRobotsMode is returned for an unknown robots.txt mode.
	ErrInvalidRobotsMode = errors.New("invalid robots mode: must be simple, standard or off")
)
