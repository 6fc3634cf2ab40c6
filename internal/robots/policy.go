// Package robots turns a site's robots.txt into an admission policy for the
// crawl frontier.
//
// The default policy is deliberately simple: every "Disallow:" line in the
// file applies to every user agent, and "Allow:" lines are ignored. A
// standards-based policy backed by github.com/temoto/robotstxt is available
// as an opt-in mode. Both fail open: when robots.txt cannot be fetched or
// parsed, everything is allowed.
package robots

import (
	"bufio"
	"sort"
	"strings"

	"github.com/temoto/robotstxt"
)

// Mode selects how robots.txt is interpreted.
type Mode string

// Supported modes.
const (
	// ModeSimple honors Disallow lines for all agents and ignores Allow.
	ModeSimple Mode = "simple"

	// ModeStandard evaluates the file with agent groups and Allow rules.
	ModeStandard Mode = "standard"

	// ModeOff disables robots.txt entirely.
	ModeOff Mode = "off"
)

// ParseMode validates a textual mode. An empty string selects ModeSimple.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSimple:
		return ModeSimple, true
	case ModeStandard:
		return ModeStandard, true
	case ModeOff:
		return ModeOff, true
	default:
		return "", false
	}
}

// Policy decides whether a URL path may be crawled.
type Policy interface {
	// Allowed reports whether path may be fetched.
	Allowed(path string) bool
}

// AllowAll is the policy used when robots.txt is disabled or unavailable.
type AllowAll struct{}

// Allowed always returns true.
func (AllowAll) Allowed(string) bool { return true }

// DisallowSet is a set of disallowed path prefixes for one host.
// It is immutable once parsed.
type DisallowSet struct {
	prefixes []string
}

// NewDisallowSet builds a set from prefixes. Empty prefixes are dropped.
func NewDisallowSet(prefixes ...string) *DisallowSet {
	seen := make(map[string]bool)
	set := &DisallowSet{}
	for _, p := range prefixes {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		set.prefixes = append(set.prefixes, p)
	}
	sort.Strings(set.prefixes)
	return set
}

// Parse scans a robots.txt body for Disallow lines. Matching is
// case-insensitive and the whole line is lower-cased, so prefixes are
// stored in lower case.
func Parse(body string) *DisallowSet {
	var prefixes []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if !strings.HasPrefix(line, "disallow:") {
			continue
		}
		path := strings.TrimSpace(strings.TrimPrefix(line, "disallow:"))
		if i := strings.Index(path, "#"); i >= 0 {
			path = strings.TrimSpace(path[:i])
		}
		prefixes = append(prefixes, path)
	}
	return NewDisallowSet(prefixes...)
}

// Allowed is true unless path starts with a disallowed prefix.
func (d *DisallowSet) Allowed(path string) bool {
	if d == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	for _, prefix := range d.prefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// Prefixes returns a copy of the disallowed prefixes in sorted order.
func (d *DisallowSet) Prefixes() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.prefixes))
	copy(out, d.prefixes)
	return out
}

// Len returns the number of disallowed prefixes.
func (d *DisallowSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.prefixes)
}

// standardPolicy evaluates paths against the robots group for one agent.
type standardPolicy struct {
	group *robotstxt.Group
}

// ParseStandard parses body with full robots.txt semantics for userAgent.
// The boolean is false when the body cannot be parsed.
func ParseStandard(body []byte, userAgent string) (Policy, bool) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, false
	}
	group := data.FindGroup(userAgent)
	if group == nil {
		return AllowAll{}, true
	}
	return &standardPolicy{group: group}, true
}

// Allowed reports whether the agent group permits path.
func (p *standardPolicy) Allowed(path string) bool {
	if path == "" {
		path = "/"
	}
	return p.group.Test(path)
}
