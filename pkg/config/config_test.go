package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtslab/mtslab/pkg/simulate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Library.Source != SourceBuiltin {
		t.Errorf("expected default source builtin, got %q", cfg.Library.Source)
	}
	if cfg.Explorer.Count != 6 || cfg.Explorer.MinCount != 4 || cfg.Explorer.MaxCount != 12 {
		t.Errorf("unexpected explorer defaults: %+v", cfg.Explorer)
	}
	if cfg.Explorer.Scenario != "Drifting" {
		t.Errorf("expected default scenario Drifting, got %q", cfg.Explorer.Scenario)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "non-existent file returns defaults",
			yaml: "", // signal: don't create a file
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8080" {
					t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
				}
			},
		},
		{
			name: "valid YAML overrides defaults",
			yaml: `
library:
  source: s3
  bucket: test-library
  key: mts/library.yaml
  region: us-west-2
explorer:
  scenario: out-of-tolerance
  count: 10
server:
  port: "9090"
  chart_cache_size: 8
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Library.Source != SourceS3 || cfg.Library.Bucket != "test-library" {
					t.Errorf("unexpected library section: %+v", cfg.Library)
				}
				if cfg.Explorer.Count != 10 || cfg.Explorer.MaxCount != 12 {
					t.Errorf("expected count override with default max, got %+v", cfg.Explorer)
				}
				if got := cfg.ExploreOptions().Scenario; got != simulate.OutOfTolerance {
					t.Errorf("expected Out of tolerance, got %q", got)
				}
				if cfg.Server.Port != "9090" || cfg.Server.ChartCacheSize != 8 {
					t.Errorf("unexpected server section: %+v", cfg.Server)
				}
			},
		},
		{
			name:    "invalid YAML returns error",
			yaml:    "{{invalid yaml",
			wantErr: "parsing config",
		},
		{
			name: "invalid values are reported together",
			yaml: `
library:
  source: ftp
explorer:
  scenario: chaotic
  count: 20
`,
			wantErr: "library.source",
			check: func(t *testing.T, cfg *Config) {
				t.Fatal("should not be called")
			},
		},
		{
			name: "local source needs a path",
			yaml: `
library:
  source: local
`,
			wantErr: "library.path is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")

			if tc.yaml != "" {
				if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
					t.Fatalf("write test config: %v", err)
				}
			}

			cfg, err := Load(path)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library.Source = SourceGCS
	cfg.Explorer.Scenario = "chaotic"
	cfg.Explorer.Count = 50

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"library.bucket", "explorer.scenario", "explorer.count 50"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(nested); got != "" {
		t.Errorf("expected no config, got %q", got)
	}

	cfgDir := filepath.Join(root, ".mtslab")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(want, []byte("library:\n  source: builtin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(nested); got != want {
		t.Errorf("FindConfigFile = %q, want %q", got, want)
	}
}

func TestLibraryCachePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library.Source = SourceS3
	cfg.Library.Bucket = "bucket"
	cfg.Library.Key = "mts/library.yaml"

	got := cfg.LibraryCachePath()
	if !strings.HasPrefix(got, CacheDir()) {
		t.Errorf("expected path under %q, got %q", CacheDir(), got)
	}
	if filepath.Base(got) != "s3_bucket_mts_library.yaml" {
		t.Errorf("unexpected cache file name %q", filepath.Base(got))
	}
}
