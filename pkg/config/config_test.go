package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaoscope/chaoscope/pkg/health"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Evaluation.WindowMonths != 12 {
		t.Errorf("expected default window 12, got %d", cfg.Evaluation.WindowMonths)
	}
	if cfg.Evaluation.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Evaluation.Workers)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected default backend 'local', got %q", cfg.Storage.Backend)
	}
	if cfg.Scoring.Weights == nil {
		t.Error("expected Weights map to be initialized, got nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file keeps defaults",
			yaml: "",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Evaluation.WindowMonths != 12 {
					t.Errorf("expected default window 12, got %d", cfg.Evaluation.WindowMonths)
				}
			},
		},
		{
			name: "valid YAML overrides defaults",
			yaml: `
evaluation:
  window_months: 24
  workers: 8
scoring:
  weights:
    stars: 2.0
  baselines:
    issue_age: 45
  dimension_weights:
    risk:
      issue_age: 0.7
logging:
  level: debug
  format: json
storage:
  backend: s3
  bucket: chaoscope-series
  region: eu-west-1
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Evaluation.WindowMonths != 24 {
					t.Errorf("expected window 24, got %d", cfg.Evaluation.WindowMonths)
				}
				if cfg.Evaluation.Workers != 8 {
					t.Errorf("expected workers 8, got %d", cfg.Evaluation.Workers)
				}
				if cfg.Scoring.Weights["stars"] != 2.0 {
					t.Errorf("expected stars weight 2.0, got %f", cfg.Scoring.Weights["stars"])
				}
				if cfg.Logging.Format != "json" {
					t.Errorf("expected json format, got %q", cfg.Logging.Format)
				}
				if cfg.Storage.Bucket != "chaoscope-series" {
					t.Errorf("expected bucket, got %q", cfg.Storage.Bucket)
				}
			},
		},
		{
			name:    "invalid YAML returns error",
			yaml:    "{{invalid yaml",
			wantErr: true,
		},
		{
			name:    "unknown field returns error",
			yaml:    "evaluation:\n  windw_months: 6\n",
			wantErr: true,
		},
		{
			name:    "s3 without bucket fails validation",
			yaml:    "storage:\n  backend: s3\n",
			wantErr: true,
		},
		{
			name:    "unknown dimension fails validation",
			yaml:    "scoring:\n  dimension_weights:\n    vibes:\n      stars: 1\n",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatalf("write test config: %v", err)
			}

			cfg, err := Load(path)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
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

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Evaluation.Workers != 4 {
		t.Errorf("expected default workers, got %d", cfg.Evaluation.Workers)
	}
}

func TestValidateError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Evaluation.Workers = -1

	err := cfg.Validate()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "evaluation.workers" {
		t.Errorf("Field = %q, want evaluation.workers", ve.Field)
	}
}

func TestCatalogFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Catalog() != health.DefaultCatalog() {
		t.Error("config without overrides should share the default catalog")
	}

	cfg.Scoring.Weights["stars"] = 3
	cfg.Scoring.DimensionWeights["risk"] = map[string]float64{"issue_age": 0.9}
	c := cfg.Catalog()
	if w := c.ConfigFor("stars").Weight; w != 3 {
		t.Errorf("stars weight = %v, want 3", w)
	}
	risk, _ := c.Dimension(health.DimRisk)
	for _, m := range risk.Metrics {
		if m.Key == "opendigger_issue_age" && m.Weight != 0.9 {
			t.Errorf("issue_age local weight = %v, want 0.9", m.Weight)
		}
	}
}

func TestDirectoryFunctions(t *testing.T) {
	results := ResultDir("acme/widget")

	if !strings.Contains(results, filepath.Join("chaoscope", "acme_widget")) {
		t.Errorf("ResultDir should contain slug, got %q", results)
	}
	if !strings.HasSuffix(results, filepath.Join("acme_widget", "results")) {
		t.Errorf("ResultDir should end with %q, got %q", filepath.Join("acme_widget", "results"), results)
	}
}

func TestRepoSlug(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"acme/widget", "acme_widget"},
		{"/acme/widget/", "acme_widget"},
		{"my-org/repo.js", "my-org_repo.js"},
		{"a b:c", "a_b_c"},
		{"", "default"},
		{"..", "default"},
	}
	for _, tc := range tests {
		if got := RepoSlug(tc.key); got != tc.want {
			t.Errorf("RepoSlug(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("found in parent directory", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ".chaoscope")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		sub := filepath.Join(root, "a", "b", "c")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatalf("create subdirectory: %v", err)
		}
		if got := FindConfigFile(sub); got != configPath {
			t.Errorf("FindConfigFile = %q, want %q", got, configPath)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if got := FindConfigFile(t.TempDir()); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
