// Package urlnorm canonicalizes crawl URLs.
//
// A normalized URL keeps only scheme, host and path: the scheme and host
// are lower-cased, query and fragment are dropped, and a trailing slash is
// removed from every path except the root. Two URLs that differ only by
// fragment or trailing slash therefore normalize to the same string, and
// Normalize is idempotent.
package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotAbsolute is returned when a URL lacks an http(s) scheme or a host.
var ErrNotAbsolute = errors.New("url is not an absolute http(s) url")

// skippablePrefixes are href prefixes that never point at a crawlable page.
var skippablePrefixes = []string{"javascript:", "mailto:", "tel:", "data:", "#"}

// Normalize returns the canonical form of raw.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	return normalizeURL(u)
}

// MustNormalize is like Normalize but returns raw unchanged on error.
// It is meant for logging and for values that were normalized before.
func MustNormalize(raw string) string {
	n, err := Normalize(raw)
	if err != nil {
		return raw
	}
	return n
}

func normalizeURL(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrNotAbsolute, u.String())
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}

	return scheme + "://" + strings.ToLower(u.Host) + path, nil
}

// Resolve resolves href against base and normalizes the result.
// It reports false when either side cannot be parsed or the result is not
// an http(s) URL.
func Resolve(base, href string) (string, bool) {
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}

	n, err := normalizeURL(b.ResolveReference(ref))
	if err != nil {
		return "", false
	}
	return n, true
}

// ResolveAbsolute resolves href against base without normalizing, keeping
// query strings intact. Link checks use it so that the probed URL is the one
// the visitor would follow.
func ResolveAbsolute(base, href string) (string, bool) {
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}

	abs := b.ResolveReference(ref)
	scheme := strings.ToLower(abs.Scheme)
	if (scheme != "http" && scheme != "https") || abs.Host == "" {
		return "", false
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), true
}

// Hostname returns the lower-cased host of raw without the port, or "" when
// raw cannot be parsed.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsSameDomain reports whether a and b share a host.
// Scheme and port are ignored.
func IsSameDomain(a, b string) bool {
	ha := Hostname(a)
	return ha != "" && ha == Hostname(b)
}

// Path returns the escaped path of raw, "/" when empty.
func Path(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "/"
	}
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}

// Origin returns scheme://host of raw.
func Origin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrNotAbsolute, raw)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// IsSkippableHref reports whether href can never lead to a checkable page:
// empty, fragment-only, or a javascript:, mailto:, tel: or data: link.
func IsSkippableHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" {
		return true
	}
	for _, prefix := range skippablePrefixes {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	return false
}
