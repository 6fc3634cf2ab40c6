package config

import (
	"maps"
	"net/url"
	"strings"
)

// SiteConfig holds per-site audit settings from the configuration file.
type SiteConfig struct {
	// Cookie is sent with every page load, e.g. "SESS=abc; theme=dark".
	// Useful for auditing pages behind a login.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers for page loads.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page limit when positive.
	MaxPages int `yaml:"max_pages,omitempty"`

	// IgnorePatterns are glob patterns for URL paths that are never crawled.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`

	// FollowPatterns, when set, restrict crawling to matching URL paths.
	FollowPatterns []string `yaml:"follow_patterns,omitempty"`

	// CheckExternal overrides whether links to other sites are probed.
	CheckExternal *bool `yaml:"check_external,omitempty"`

	// RobotsMode overrides how robots.txt is interpreted.
	RobotsMode string `yaml:"robots,omitempty"`
}

// RequestHeaders returns Headers plus a Cookie header when Cookie is set.
// The result is a new map.
func (s SiteConfig) RequestHeaders() map[string]string {
	if len(s.Headers) == 0 && s.Cookie == "" {
		return nil
	}
	headers := make(map[string]string, len(s.Headers)+1)
	maps.Copy(headers, s.Headers)
	if s.Cookie != "" {
		headers["Cookie"] = s.Cookie
	}
	return headers
}

// File is the structure of the .sitequality configuration file.
type File struct {
	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names (e.g. "www.example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the defaults merged with the settings for target.
// Target may be a URL or a host name; a site entry without the "www."
// prefix also matches the www host.
func (cf *File) GetSiteConfig(target string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.lookup(hostOf(target))
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.MaxPages > 0 {
		result.MaxPages = site.MaxPages
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	if site.CheckExternal != nil {
		result.CheckExternal = site.CheckExternal
	}
	if site.RobotsMode != "" {
		result.RobotsMode = site.RobotsMode
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	if host == "" {
		return SiteConfig{}, false
	}
	if site, ok := cf.Sites[host]; ok {
		return site, true
	}
	if bare, found := strings.CutPrefix(host, "www."); found {
		site, ok := cf.Sites[bare]
		return site, ok
	}
	return SiteConfig{}, false
}

// hostOf returns the lower-cased host of a URL or bare host name.
func hostOf(target string) string {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return ""
		}
		return strings.ToLower(u.Hostname())
	}
	host, _, _ := strings.Cut(target, "/")
	return strings.ToLower(host)
}
