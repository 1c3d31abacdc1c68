// Package config handles loading and managing chaoscope configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// Config is the top-level configuration for chaoscope.
type Config struct {
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
}

// EvaluationConfig controls the evaluation window and parallelism.
type EvaluationConfig struct {
	WindowMonths int `yaml:"window_months"` // 0 evaluates every month
	Workers      int `yaml:"workers"`
}

// ScoringConfig overrides catalog parameters. Metric keys may omit the
// opendigger_ prefix.
type ScoringConfig struct {
	Weights          map[string]float64            `yaml:"weights"`
	Baselines        map[string]float64            `yaml:"baselines"`
	DimensionWeights map[string]map[string]float64 `yaml:"dimension_weights"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// StorageConfig selects where series and results are kept.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // local, s3 or gcs
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Evaluation: EvaluationConfig{
			WindowMonths: health.DefaultWindowMonths,
			Workers:      health.DefaultWorkers,
		},
		Scoring: ScoringConfig{
			Weights:          map[string]float64{},
			Baselines:        map[string]float64{},
			DimensionWeights: map[string]map[string]float64{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Backend: "local",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
// Unknown fields are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.Evaluation.WindowMonths < 0 {
		return ValidationError{"evaluation.window_months", "must be >= 0"}
	}
	if c.Evaluation.Workers < 0 {
		return ValidationError{"evaluation.workers", "must be >= 0"}
	}
	for key, w := range c.Scoring.Weights {
		if w < 0 {
			return ValidationError{"scoring.weights." + key, "must be >= 0"}
		}
	}
	for key, b := range c.Scoring.Baselines {
		if b < 0 {
			return ValidationError{"scoring.baselines." + key, "must be >= 0"}
		}
	}
	for dim := range c.Scoring.DimensionWeights {
		if !knownDimension(dim) {
			return ValidationError{"scoring.dimension_weights." + dim, "unknown dimension"}
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return ValidationError{"logging.format", "must be json or console"}
	}
	switch c.Storage.Backend {
	case "", "local":
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return ValidationError{"storage.bucket", "required for " + c.Storage.Backend}
		}
	default:
		return ValidationError{"storage.backend", "must be local, s3 or gcs"}
	}
	return nil
}

func knownDimension(id string) bool {
	for _, d := range health.DimensionOrder {
		if string(d) == id {
			return true
		}
	}
	return false
}

// Overrides converts the scoring section into catalog overrides.
func (c *Config) Overrides() health.Overrides {
	o := health.Overrides{
		Weights:   c.Scoring.Weights,
		Baselines: c.Scoring.Baselines,
	}
	if len(c.Scoring.DimensionWeights) > 0 {
		o.DimensionWeights = make(map[health.DimensionID]map[string]float64, len(c.Scoring.DimensionWeights))
		for dim, weights := range c.Scoring.DimensionWeights {
			o.DimensionWeights[health.DimensionID(dim)] = weights
		}
	}
	return o
}

// Catalog builds the metric catalog described by the scoring section.
func (c *Config) Catalog() *health.Catalog {
	s := c.Scoring
	if len(s.Weights) == 0 && len(s.Baselines) == 0 && len(s.DimensionWeights) == 0 {
		return health.DefaultCatalog()
	}
	return health.NewCatalog(c.Overrides())
}

// EvaluatorOptions returns the evaluator options implied by the config.
func (c *Config) EvaluatorOptions() []health.Option {
	return []health.Option{
		health.WithCatalog(c.Catalog()),
		health.WithWindow(c.Evaluation.WindowMonths),
		health.WithWorkers(c.Evaluation.Workers),
	}
}

// FindConfigFile looks for .chaoscope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".chaoscope", "config.yaml")
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

// BaseCacheDir returns ~/.cache/chaoscope.
func BaseCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to temp dir if HOME isn't available
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "chaoscope")
}

// CacheDir returns the cache directory for a repository.
// Uses ~/.cache/chaoscope/<repo-slug>/.
func CacheDir(repoKey string) string {
	return filepath.Join(BaseCacheDir(), RepoSlug(repoKey))
}

// ResultDir returns the evaluation result storage directory for a repository.
func ResultDir(repoKey string) string {
	return filepath.Join(CacheDir(repoKey), "results")
}

// RepoSlug creates a filesystem-safe identifier from a repository key such
// as "owner/repo".
func RepoSlug(repoKey string) string {
	key := strings.Trim(strings.TrimSpace(repoKey), "/")
	if key == "" {
		return "default"
	}
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	if strings.Trim(slug, ".") == "" {
		return "default"
	}
	return slug
}
