package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/chaoscope/chaoscope/internal/scheduler"
	"github.com/chaoscope/chaoscope/pkg/config"
	"github.com/chaoscope/chaoscope/pkg/health"
)

type daemonConfig struct {
	Port               string
	DatabaseURL        string
	Storage            config.StorageConfig
	RedisAddr          string
	RedisPassword      string
	CacheTTL           time.Duration
	APIKey             string
	WebhookSecret      string
	ReevaluateSchedule string
	RateLimitRPS       float64
	RateLimitBurst     int
	Logging            config.LoggingConfig
	Workers            int
	WindowMonths       int
	ConfigFile         string
}

// loadDotEnv loads the first .env found in the working directory or its parent.
func loadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func loadConfig() daemonConfig {
	return daemonConfig{
		Port:        envOrDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Storage: config.StorageConfig{
			Backend:   envOrDefault("STORAGE_BACKEND", "local"),
			Path:      envOrDefault("LOCAL_STORAGE_PATH", "/tmp/chaoscope-data"),
			Bucket:    firstEnv("S3_BUCKET", "GCS_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		CacheTTL:           cast.ToDuration(envOrDefault("CACHE_TTL", "30m")),
		APIKey:             os.Getenv("API_KEY"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		ReevaluateSchedule: envOrDefault("REEVALUATE_SCHEDULE", scheduler.DefaultReevaluateSchedule),
		RateLimitRPS:       cast.ToFloat64(envOrDefault("RATE_LIMIT_RPS", "10")),
		RateLimitBurst:     cast.ToInt(envOrDefault("RATE_LIMIT_BURST", "20")),
		Logging: config.LoggingConfig{
			Level:  envOrDefault("LOG_LEVEL", "info"),
			Format: envOrDefault("LOG_FORMAT", "json"),
		},
		Workers:      cast.ToInt(envOrDefault("EVAL_WORKERS", cast.ToString(health.DefaultWorkers))),
		WindowMonths: cast.ToInt(envOrDefault("EVAL_WINDOW_MONTHS", cast.ToString(health.DefaultWindowMonths))),
		ConfigFile:   os.Getenv("CHAOSCOPE_CONFIG"),
	}
}

// scoringConfig merges the optional scoring config file with the env
// evaluation settings.
func (c daemonConfig) scoringConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.ConfigFile != "" {
		loaded, err := config.Load(c.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Evaluation.Workers = c.Workers
	cfg.Evaluation.WindowMonths = c.WindowMonths
	return cfg, cfg.Validate()
}

// reevaluationEnabled reports whether the nightly job should run.
func (c daemonConfig) reevaluationEnabled() bool {
	s := strings.ToLower(strings.TrimSpace(c.ReevaluateSchedule))
	return s != "" && s != "off" && s != "disabled"
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
