package crawler

import "errors"

// ErrInvalidRoot is returned when the crawl root is not an absolute
// http or https URL.
var ErrInvalidRoot = errors.New("invalid crawl root")
