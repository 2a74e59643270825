// Package config handles loading and managing mtslab configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/simulate"
)

// Library sources.
const (
	SourceBuiltin = "builtin"
	SourceLocal   = "local"
	SourceS3      = "s3"
	SourceGCS     = "gcs"
)

// Config is the top-level configuration for mtslab.
type Config struct {
	Library  LibraryConfig  `yaml:"library"`
	Explorer ExplorerConfig `yaml:"explorer"`
	Server   ServerConfig   `yaml:"server"`
}

// LibraryConfig says where the test library document lives.
type LibraryConfig struct {
	Source   string `yaml:"source"`   // builtin, local, s3, gcs
	Path     string `yaml:"path"`     // local file, or directory for relative keys
	Bucket   string `yaml:"bucket"`   // s3/gcs bucket
	Key      string `yaml:"key"`      // object key of the document
	Region   string `yaml:"region"`   // s3 only
	Endpoint string `yaml:"endpoint"` // s3-compatible endpoint override
}

// ExplorerConfig controls the simulated data source.
type ExplorerConfig struct {
	Scenario string  `yaml:"scenario"`
	Count    int     `yaml:"count"`
	MinCount int     `yaml:"min_count"`
	MaxCount int     `yaml:"max_count"`
	Baseline float64 `yaml:"baseline"` // default baseline for manual percent-change entry
}

// ServerConfig controls the HTTP daemon.
type ServerConfig struct {
	Port           string `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	ChartCacheSize int    `yaml:"chart_cache_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	opts := explore.DefaultOptions()
	return &Config{
		Library: LibraryConfig{
			Source: SourceBuiltin,
			Key:    "library.yaml",
		},
		Explorer: ExplorerConfig{
			Scenario: string(opts.Scenario),
			Count:    opts.Count,
			MinCount: opts.MinCount,
			MaxCount: opts.MaxCount,
			Baseline: explore.DefaultManualBaseline,
		},
		Server: ServerConfig{
			Port:           "8080",
			ChartCacheSize: 64,
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	var problems []string

	switch c.Library.Source {
	case SourceBuiltin:
	case SourceLocal:
		if c.Library.Path == "" {
			problems = append(problems, "library.path is required for the local source")
		}
	case SourceS3, SourceGCS:
		if c.Library.Bucket == "" {
			problems = append(problems, fmt.Sprintf("library.bucket is required for the %s source", c.Library.Source))
		}
		if c.Library.Key == "" {
			problems = append(problems, "library.key must not be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("library.source %q is not one of builtin, local, s3, gcs", c.Library.Source))
	}

	if _, err := simulate.ParseScenario(c.Explorer.Scenario); err != nil {
		problems = append(problems, fmt.Sprintf("explorer.scenario %q is not a known scenario", c.Explorer.Scenario))
	}
	if c.Explorer.MinCount < 1 {
		problems = append(problems, "explorer.min_count must be at least 1")
	}
	if c.Explorer.MaxCount < c.Explorer.MinCount {
		problems = append(problems, "explorer.max_count must not be below min_count")
	}
	if c.Explorer.Count < c.Explorer.MinCount || c.Explorer.Count > c.Explorer.MaxCount {
		problems = append(problems, fmt.Sprintf("explorer.count %d must be within [%d, %d]",
			c.Explorer.Count, c.Explorer.MinCount, c.Explorer.MaxCount))
	}
	if c.Server.ChartCacheSize < 1 {
		problems = append(problems, "server.chart_cache_size must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// ExploreOptions converts the explorer section for the explore package.
func (c *Config) ExploreOptions() explore.Options {
	sc, err := simulate.ParseScenario(c.Explorer.Scenario)
	if err != nil {
		sc = simulate.Drifting
	}
	return explore.Options{
		Scenario: sc,
		Count:    c.Explorer.Count,
		MinCount: c.Explorer.MinCount,
		MaxCount: c.Explorer.MaxCount,
	}
}

// FindConfigFile looks for .mtslab/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".mtslab", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// CacheDir returns ~/.cache/mtslab, falling back to the temp dir.
func CacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "mtslab")
}

// LibraryCachePath is where the last successfully fetched remote library
// document is kept for offline use.
func (c *Config) LibraryCachePath() string {
	name := strings.NewReplacer("/", "_", ":", "_").Replace(c.Library.Source + "_" + c.Library.Bucket + "_" + c.Library.Key)
	return filepath.Join(CacheDir(), "library", name)
}
