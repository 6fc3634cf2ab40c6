package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig tests default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"engine", cfg.Engine, EngineBrowser},
		{"headless", cfg.Headless, true},
		{"timeout", cfg.Timeout, 30 * time.Second},
		{"max pages", cfg.MaxPages, 100},
		{"max retries", cfg.MaxRetries, 2},
		{"crawl delay", cfg.CrawlDelay, 3 * time.Second},
		{"robots mode", cfg.RobotsMode, "simple"},
		{"check external", cfg.CheckExternal, true},
		{"link timeout", cfg.LinkTimeout, 10 * time.Second},
		{"link concurrency", cfg.LinkConcurrency, 16},
		{"link rate", cfg.LinkRatePerHost, 0.0},
		{"batch size", cfg.BatchSize, DefaultBatchSize},
		{"save to db", cfg.SaveToDB, true},
		{"db dir", cfg.DBDir, XDGDataDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if !strings.Contains(cfg.UserAgent, "Chrome/") {
		t.Errorf("expected a browser user agent, got %q", cfg.UserAgent)
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"http engine", func(c *Config) { c.Engine = EngineHTTP }, nil},
		{"standard robots", func(c *Config) { c.RobotsMode = "standard" }, nil},
		{"empty robots means simple", func(c *Config) { c.RobotsMode = "" }, nil},
		{"zero crawl delay", func(c *Config) { c.CrawlDelay = 0 }, nil},
		{"json only", func(c *Config) { c.JSONReport = true }, nil},
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"unknown engine", func(c *Config) { c.Engine = "lynx" }, ErrInvalidEngine},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero max pages", func(c *Config) { c.MaxPages = 0 }, ErrInvalidMaxPages},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, ErrInvalidMaxRetries},
		{"negative delay", func(c *Config) { c.CrawlDelay = -time.Second }, ErrInvalidCrawlDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero link timeout", func(c *Config) { c.LinkTimeout = 0 }, ErrInvalidLinkTimeout},
		{"zero link concurrency", func(c *Config) { c.LinkConcurrency = 0 }, ErrInvalidLinkConcurrency},
		{"negative link rate", func(c *Config) { c.LinkRatePerHost = -1 }, ErrInvalidLinkRate},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"unknown robots mode", func(c *Config) { c.RobotsMode = "strict" }, ErrInvalidRobotsMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }

// TestFileGetSiteConfig tests merging defaults with site settings.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Cookie:         "default=1",
			Headers:        map[string]string{"X-Env": "prod", "Accept-Language": "en"},
			IgnorePatterns: []string{"/search*"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Cookie:         "SESS=abc",
				Headers:        map[string]string{"X-Env": "staging"},
				MaxPages:       20,
				FollowPatterns: []string{"/blog/*"},
				CheckExternal:  boolPtr(false),
				RobotsMode:     "off",
			},
		},
	}

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("https://other.test/")
		if got.Cookie != "default=1" || got.MaxPages != 0 || got.CheckExternal != nil {
			t.Errorf("unexpected config %+v", got)
		}
	})

	t.Run("merges site settings by URL", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("https://example.com/about")
		if got.Cookie != "SESS=abc" || got.MaxPages != 20 || got.RobotsMode != "off" {
			t.Errorf("unexpected config %+v", got)
		}
		if got.Headers["X-Env"] != "staging" || got.Headers["Accept-Language"] != "en" {
			t.Errorf("unexpected headers %v", got.Headers)
		}
		if len(got.IgnorePatterns) != 1 || len(got.FollowPatterns) != 1 {
			t.Errorf("unexpected patterns %+v", got)
		}
		if got.CheckExternal == nil || *got.CheckExternal {
			t.Error("expected check_external override")
		}
	})

	t.Run("matches www host and bare host names", func(t *testing.T) {
		t.Parallel()

		if got := cf.GetSiteConfig("https://WWW.example.com"); got.MaxPages != 20 {
			t.Errorf("expected www host to match, got %+v", got)
		}
		if got := cf.GetSiteConfig("example.com"); got.MaxPages != 20 {
			t.Errorf("expected bare host to match, got %+v", got)
		}
	})

	t.Run("does not modify default headers", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("https://example.com/")
		if cf.Defaults.Headers["X-Env"] != "prod" {
			t.Error("defaults were modified")
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		empty := &File{Defaults: SiteConfig{MaxPages: 5}}
		if got := empty.GetSiteConfig("https://example.com"); got.MaxPages != 5 {
			t.Errorf("expected defaults, got %+v", got)
		}
	})
}

// TestSiteConfigRequestHeaders tests the cookie header merge.
func TestSiteConfigRequestHeaders(t *testing.T) {
	t.Parallel()

	if got := (SiteConfig{}).RequestHeaders(); got != nil {
		t.Errorf("expected nil headers, got %v", got)
	}

	site := SiteConfig{Cookie: "a=b", Headers: map[string]string{"X-Test": "1"}}
	got := site.RequestHeaders()
	if got["Cookie"] != "a=b" || got["X-Test"] != "1" {
		t.Errorf("unexpected headers %v", got)
	}
	if _, ok := site.Headers["Cookie"]; ok {
		t.Error("site headers were modified")
	}
}

// TestConfigForSite tests applying per-site overrides.
func TestConfigForSite(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.SiteConfigs = &File{Sites: map[string]SiteConfig{
		"example.com": {MaxPages: 7, CheckExternal: boolPtr(false), RobotsMode: "standard"},
	}}

	got := cfg.ForSite("https://example.com/")
	if got.MaxPages != 7 || got.CheckExternal || got.RobotsMode != "standard" {
		t.Errorf("unexpected overrides %+v", got)
	}
	if cfg.MaxPages != DefaultMaxPages || !cfg.CheckExternal {
		t.Error("original config was modified")
	}

	if other := cfg.ForSite("https://other.test/"); other.MaxPages != DefaultMaxPages {
		t.Errorf("expected defaults for unknown site, got %d", other.MaxPages)
	}
	if (&Config{}).Site("https://example.com").Cookie != "" {
		t.Error("expected empty site config without a file")
	}
}

// TestLoadConfigFile tests loading the YAML file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		return path
	}

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.sitequality")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := write(t, `defaults:
  max_pages: 50
  cookie: "default=abc"
  ignore_patterns:
    - "/search*"
sites:
  example.com:
    max_pages: 10
    cookie: "SESS=xyz"
    check_external: false
    robots: standard
    headers:
      Authorization: "Basic dXNlcjpwYXNz"
    follow_patterns:
      - "/docs/*"
`)
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.MaxPages != 50 || cf.Defaults.Cookie != "default=abc" {
			t.Errorf("unexpected defaults %+v", cf.Defaults)
		}
		site, ok := cf.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.MaxPages != 10 || site.RobotsMode != "standard" || site.CheckExternal == nil || *site.CheckExternal {
			t.Errorf("unexpected site %+v", site)
		}
		if site.Headers["Authorization"] != "Basic dXNlcjpwYXNz" || len(site.FollowPatterns) != 1 {
			t.Errorf("unexpected site %+v", site)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfigFile(write(t, `invalid: yaml: content: [}`)); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects unknown robots mode", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(write(t, "sites:\n  example.com:\n    robots: strict\n"))
		if !errors.Is(err, ErrInvalidRobotsMode) {
			t.Errorf("expected ErrInvalidRobotsMode, got %v", err)
		}
	})

	t.Run("rejects negative max pages", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(write(t, "defaults:\n  max_pages: -1\n"))
		if !errors.Is(err, ErrInvalidMaxPages) {
			t.Errorf("expected ErrInvalidMaxPages, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(write(t, "defaults:\n  max_pages: 25\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("finds file in working directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		t.Chdir(dir)

		got := FindConfigFile("")
		if filepath.Base(got) != DefaultConfigFile || filepath.Dir(got) == "" {
			t.Errorf("expected %s in working directory, got %q", DefaultConfigFile, got)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q does not end in %s", name, dir, AppName)
		}
	}
}
