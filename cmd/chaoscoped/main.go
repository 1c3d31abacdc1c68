// Command chaoscoped is the hosted chaoscope service.
// It serves the REST API, the signed series webhook, Prometheus metrics and
// a health check, and re-evaluates registered repositories on a schedule.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/chaoscope/chaoscope/internal/api"
	"github.com/chaoscope/chaoscope/internal/ingestion"
	"github.com/chaoscope/chaoscope/internal/platform"
	"github.com/chaoscope/chaoscope/internal/registry"
	"github.com/chaoscope/chaoscope/internal/scheduler"
	"github.com/chaoscope/chaoscope/internal/telemetry"
	"github.com/chaoscope/chaoscope/internal/webhook"
	"github.com/chaoscope/chaoscope/pkg/health"
	"github.com/chaoscope/chaoscope/pkg/logger"
)

func main() {
	loadDotEnv()
	cfg := loadConfig()
	log := logger.New(cfg.Logging, os.Stderr)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("chaoscoped exited")
	}
}

func run(cfg daemonConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scoring, err := cfg.scoringConfig()
	if err != nil {
		return err
	}

	var (
		db  *sql.DB
		reg *registry.Service
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		version, err := platform.AutoMigrate(db)
		if err != nil {
			return err
		}
		log.Info().Uint("schema_version", version).Msg("database ready")
		reg = registry.NewService(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, repository registry disabled")
	}

	storage, err := ingestion.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	metrics := telemetry.New()
	evaluator := health.NewEvaluator(append(scoring.EvaluatorOptions(),
		health.WithLogger(logger.Component(log, "health")))...)

	svcOpts := []ingestion.ServiceOption{
		ingestion.WithMetrics(metrics),
		ingestion.WithLogger(log),
	}
	var regReader api.RegistryReader
	if reg != nil {
		svcOpts = append(svcOpts, ingestion.WithRegistry(reg))
		regReader = reg
	}
	svc := ingestion.NewService(storage, evaluator, svcOpts...)

	var cache api.ResultCache = api.NewMemoryCacheFromEnv()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, using in-memory result cache")
		} else {
			cache = api.NewRedisCache(client, "chaoscope", cfg.CacheTTL)
		}
	}

	apiMux := http.NewServeMux()
	api.NewHandler(svc, regReader, cache, log).RegisterRoutes(apiMux)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.Chain(apiMux,
		api.CORS,
		api.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.APIKeyAuth(cfg.APIKey),
	))
	if cfg.WebhookSecret != "" {
		mux.Handle("POST /v1/webhooks/series", webhook.NewHandler([]byte(cfg.WebhookSecret), svc, cache, log))
	} else {
		log.Warn().Msg("WEBHOOK_SECRET not set, series webhook disabled")
	}
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", healthHandler(db))

	var sched *scheduler.Scheduler
	if reg != nil && cfg.reevaluationEnabled() {
		sched = scheduler.New(log, scheduler.WithRetries(2, 5*time.Minute), scheduler.WithTimeout(time.Hour))
		if err := sched.AddJob(scheduler.NewReevaluateJob(svc, cfg.ReevaluateSchedule, log)); err != nil {
			return err
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Backend).Msg("starting chaoscoped")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("shutting down")
	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
