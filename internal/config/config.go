package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/crawler"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fetcher"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fingerprint"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/linkcheck"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
)

// Page engines.
const (
	// EngineBrowser renders pages in headless Chrome.
	EngineBrowser = "browser"

	// EngineHTTP fetches raw markup with a plain HTTP client. It does not
	// run JavaScript but needs no browser installation.
	EngineHTTP = "http"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "sitequality"

	// DefaultTimeout is the base page load timeout.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultMaxPages caps how many pages one audit visits.
	DefaultMaxPages = crawler.DefaultMaxPages

	// DefaultCrawlDelay is the base pause between page loads.
	DefaultCrawlDelay = crawler.DefaultDelay

	// DefaultMaxRetries is the number of retries after a failed page load.
	DefaultMaxRetries = fetcher.DefaultMaxRetries

	// DefaultLinkTimeout bounds every link probe.
	DefaultLinkTimeout = linkcheck.DefaultTimeout

	// DefaultLinkConcurrency limits link probes in flight per page.
	DefaultLinkConcurrency = linkcheck.DefaultConcurrency

	// DefaultBatchSize is the number of sites audited at once.
	DefaultBatchSize = 2

	// DefaultMaxBodySize limits how much of a page the HTTP engine reads.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize

	// DefaultEngine is the page engine used when none is configured.
	DefaultEngine = EngineBrowser

	// DefaultRobotsMode is how robots.txt is interpreted by default.
	DefaultRobotsMode = string(robots.ModeSimple)

	// DefaultUserAgent is a desktop Chrome identity. Sites that block
	// obvious bots would otherwise hide the pages being audited.
	DefaultUserAgent = fingerprint.UserAgent
)

// Config holds every option of an audit. It is filled from defaults, the
// configuration file and CLI flags, and passed down explicitly.
type Config struct {
	// Targets are the site URLs to audit.
	Targets []string

	// Engine is EngineBrowser or EngineHTTP.
	Engine string

	// Headless runs the browser without a window.
	Headless bool

	// Timeout is the base page load timeout. Retries scale it up.
	Timeout time.Duration

	// MaxPages caps how many pages one audit visits.
	MaxPages int

	// MaxRetries is the number of retries after a failed page load.
	MaxRetries int

	// CrawlDelay is the base pause between page loads.
	CrawlDelay time.Duration

	// Single audits only the target page without following links.
	Single bool

	// RobotsMode is simple, standard or off.
	RobotsMode string

	// UserAgent is sent with page loads, robots.txt and link probes.
	UserAgent string

	// MaxBodySize limits how much of a page the HTTP engine reads.
	MaxBodySize int64

	// CheckExternal enables probing of links to other sites.
	CheckExternal bool

	// LinkTimeout bounds every link probe.
	LinkTimeout time.Duration

	// LinkConcurrency limits link probes in flight per page.
	LinkConcurrency int

	// LinkRatePerHost throttles link probes per host, in requests per
	// second. Zero disables throttling.
	LinkRatePerHost float64

	// BatchSize is the number of sites audited at once.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile is where the report is written. Empty means stdout.
	ReportFile string

	// ConfigFilePath is an explicit configuration file. When empty,
	// .sitequality is looked up in the working and home directories.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, if any.
	SiteConfigs *File

	// DBDir is where the audit database lives.
	DBDir string

	// SaveToDB stores audits for later comparison.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Engine:          DefaultEngine,
		Headless:        true,
		Timeout:         DefaultTimeout,
		MaxPages:        DefaultMaxPages,
		MaxRetries:      DefaultMaxRetries,
		CrawlDelay:      DefaultCrawlDelay,
		RobotsMode:      DefaultRobotsMode,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		CheckExternal:   true,
		LinkTimeout:     DefaultLinkTimeout,
		LinkConcurrency: DefaultLinkConcurrency,
		BatchSize:       DefaultBatchSize,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/sitequality.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/sitequality.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the cache directory, e.g. ~/.cache/sitequality.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch {
	case len(c.Targets) == 0:
		return ErrNoTarget
	case c.Engine != EngineBrowser && c.Engine != EngineHTTP:
		return ErrInvalidEngine
	case c.Timeout <= 0:
		return ErrInvalidTimeout
	case c.MaxPages <= 0:
		return ErrInvalidMaxPages
	case c.MaxRetries < 0:
		return ErrInvalidMaxRetries
	case c.CrawlDelay < 0:
		return ErrInvalidCrawlDelay
	case c.MaxBodySize < 0:
		return ErrInvalidMaxBodySize
	case c.LinkTimeout <= 0:
		return ErrInvalidLinkTimeout
	case c.LinkConcurrency <= 0:
		return ErrInvalidLinkConcurrency
	case c.LinkRatePerHost < 0:
		return ErrInvalidLinkRate
	case c.BatchSize <= 0:
		return ErrInvalidBatchSize
	case c.JSONReport && c.MarkdownReport:
		return ErrConflictingReportFormats
	}
	if _, ok := robots.ParseMode(c.RobotsMode); !ok {
		return ErrInvalidRobotsMode
	}
	return nil
}

// Site returns the effective site configuration for target, which may be a
// URL or a bare host name. Without a configuration file it is empty.
func (c *Config) Site(target string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(target)
}

// ForSite returns a copy of c with the per-site overrides for target applied.
func (c *Config) ForSite(target string) *Config {
	out := *c
	site := c.Site(target)
	if site.MaxPages > 0 {
		out.MaxPages = site.MaxPages
	}
	if site.CheckExternal != nil {
		out.CheckExternal = *site.CheckExternal
	}
	if site.RobotsMode != "" {
		out.RobotsMode = site.RobotsMode
	}
	return &out
}
