// Package frontier maintains the crawl queue and the visited set.
//
// The frontier admits a URL only when it is on the crawl root's host,
// allowed by the robots policy, not yet visited, not already queued, and
// accepted by the optional ignore/follow patterns. Visited entries are
// recorded when a URL is dequeued, not when it is enqueued, so distinct
// queued URLs are never dropped early.
package frontier

import (
	"path/filepath"
	"strings"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/urlnorm"
)

// VisitedSet is the set of normalized URLs already taken from the queue,
// plus redirect targets absorbed by the crawler.
type VisitedSet struct {
	urls map[string]struct{}
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// Add records url and reports whether it was new.
func (v *VisitedSet) Add(url string) bool {
	if _, ok := v.urls[url]; ok {
		return false
	}
	v.urls[url] = struct{}{}
	return true
}

// Contains reports whether url was recorded.
func (v *VisitedSet) Contains(url string) bool {
	_, ok := v.urls[url]
	return ok
}

// Len returns the number of recorded URLs.
func (v *VisitedSet) Len() int {
	return len(v.urls)
}

// Frontier is a FIFO queue of normalized same-site URLs.
// It is owned by a single crawl and is not safe for concurrent use.
type Frontier struct {
	root    string
	policy  robots.Policy
	queue   []string
	queued  map[string]struct{}
	visited *VisitedSet

	ignorePatterns []string
	followPatterns []string
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithIgnorePatterns skips URLs whose path matches any glob pattern.
func WithIgnorePatterns(patterns []string) Option {
	return func(f *Frontier) {
		f.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts the crawl to URLs whose path matches at
// least one glob pattern. The crawl root is always admitted.
func WithFollowPatterns(patterns []string) Option {
	return func(f *Frontier) {
		f.followPatterns = patterns
	}
}

// New creates a frontier for the site at root. A nil policy allows
// everything.
func New(root string, policy robots.Policy, opts ...Option) *Frontier {
	if policy == nil {
		policy = robots.AllowAll{}
	}
	f := &Frontier{
		root:    urlnorm.MustNormalize(root),
		policy:  policy,
		queued:  make(map[string]struct{}),
		visited: NewVisitedSet(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Root returns the normalized crawl root.
func (f *Frontier) Root() string {
	return f.root
}

// Enqueue normalizes raw and appends it to the queue when admissible.
// It reports whether the URL was added; rejection is not an error.
func (f *Frontier) Enqueue(raw string) bool {
	u, err := urlnorm.Normalize(raw)
	if err != nil {
		return false
	}
	if !urlnorm.IsSameDomain(u, f.root) {
		return false
	}
	path := urlnorm.Path(u)
	if !f.policy.Allowed(path) {
		return false
	}
	if f.visited.Contains(u) {
		return false
	}
	if _, ok := f.queued[u]; ok {
		return false
	}
	if u != f.root && !f.matchesPatterns(path) {
		return false
	}

	f.queue = append(f.queue, u)
	f.queued[u] = struct{}{}
	return true
}

// Seed queues raw without the domain, robots and pattern checks. The crawl
// root is always fetched, even when robots.txt disallows it.
func (f *Frontier) Seed(raw string) bool {
	u, err := urlnorm.Normalize(raw)
	if err != nil || f.visited.Contains(u) {
		return false
	}
	if _, ok := f.queued[u]; ok {
		return false
	}
	f.queue = append(f.queue, u)
	f.queued[u] = struct{}{}
	return true
}

// Dequeue pops the oldest URL. The caller must MarkVisited it before
// fetching.
func (f *Frontier) Dequeue() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.queued, u)
	return u, true
}

// MarkVisited records url as visited and reports whether it was new.
func (f *Frontier) MarkVisited(url string) bool {
	return f.visited.Add(url)
}

// IsVisited reports whether url was visited.
func (f *Frontier) IsVisited(url string) bool {
	return f.visited.Contains(url)
}

// VisitedCount returns the size of the visited set.
func (f *Frontier) VisitedCount() int {
	return f.visited.Len()
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Empty reports whether nothing is queued.
func (f *Frontier) Empty() bool {
	return len(f.queue) == 0
}

// matchesPatterns applies ignore patterns first, then follow patterns.
func (f *Frontier) matchesPatterns(path string) bool {
	for _, pattern := range f.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}
	if len(f.followPatterns) == 0 {
		return true
	}
	for _, pattern := range f.followPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern matches a URL path against a glob pattern.
//
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns use filepath.Match, where * stays within a segment
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*."); ok {
		if strings.HasSuffix(path, "."+ext) {
			return true
		}
	}
	matched, err := filepath.Match(pattern, path)
	return err == nil && matched
}
