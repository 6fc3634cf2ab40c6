package pipeline

import "errors"

var (
	// ErrHomepageFailed is returned by the crawl step when the audit root
	// could not be loaded. It usually means the site blocks automated
	// requests, requires authentication or is unreachable.
	ErrHomepageFailed = errors.New("homepage failed")

	// ErrNoPagesLoaded is returned by the crawl step when no crawled page
	// returned status 200.
	ErrNoPagesLoaded = errors.New("no pages could be loaded successfully")

	// ErrNoNavigator is returned when a crawl step has no way to create a
	// navigator.
	ErrNoNavigator = errors.New("no navigator factory configured")
)
