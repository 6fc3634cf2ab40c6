package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/robots"
)

// DefaultConfigFile is the configuration file name looked up by FindConfigFile.
const DefaultConfigFile = ".sitequality"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads site configurations from a YAML file.
// A missing file yields ErrConfigNotFound; callers decide whether that
// matters depending on whether the path was given explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	if err := cf.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cf, nil
}

func (cf *File) validate() error {
	check := func(name string, s SiteConfig) error {
		if s.RobotsMode != "" {
			if _, ok := robots.ParseMode(s.RobotsMode); !ok {
				return fmt.Errorf("%s: %w", name, ErrInvalidRobotsMode)
			}
		}
		if s.MaxPages < 0 {
			return fmt.Errorf("%s: %w", name, ErrInvalidMaxPages)
		}
		return nil
	}
	if err := check("defaults", cf.Defaults); err != nil {
		return err
	}
	for host, site := range cf.Sites {
		if err := check("sites."+host, site); err != nil {
			return err
		}
	}
	return nil
}

// FindConfigFile returns the configuration file to use, or "" when none
// exists. An explicit configPath wins; otherwise .sitequality is looked up
// in the current directory and then in the home directory.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
