package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaoscope/chaoscope/internal/api"
	"github.com/chaoscope/chaoscope/internal/ingestion"
	"github.com/chaoscope/chaoscope/internal/telemetry"
	"github.com/chaoscope/chaoscope/pkg/config"
	"github.com/chaoscope/chaoscope/pkg/health"
)

func newServeCmd() *cobra.Command {
	var (
		port    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local chaoscope API server",
		Long: `Starts the chaoscope REST API on localhost backed by local storage.
There is no repository registry, so the list, history and delete endpoints
answer 501; series upload, health and evaluation work as in the hosted
service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir := firstNonEmpty(dataDir, cfg.Storage.Path, filepath.Join(config.BaseCacheDir(), "server"))
			srv := newLocalServer(cmd, cfg, dir, port)

			fmt.Fprintf(cmd.ErrOrStderr(), "chaoscope API server\n")
			fmt.Fprintf(cmd.ErrOrStderr(), "  Data:       %s\n", dir)
			fmt.Fprintf(cmd.ErrOrStderr(), "  Listening:  http://localhost:%s\n", port)
			return serveUntilDone(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&port, "port", "7700", "Port to serve on")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for stored series and results (default: ~/.cache/chaoscope/server)")
	return cmd
}

func newLocalServer(cmd *cobra.Command, cfg *config.Config, dir, port string) *http.Server {
	log := newLogger(cfg, cmd.ErrOrStderr())
	metrics := telemetry.New()
	evaluator := health.NewEvaluator(append(cfg.EvaluatorOptions(), health.WithLogger(log))...)
	svc := ingestion.NewService(ingestion.NewLocalStorage(dir), evaluator,
		ingestion.WithMetrics(metrics), ingestion.WithLogger(log))

	apiMux := http.NewServeMux()
	api.NewHandler(svc, nil, api.NewMemoryCache(0), log).RegisterRoutes(apiMux)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.CORS(apiMux))
	mux.Handle("GET /metrics", metrics.Handler())

	return &http.Server{
		Addr:              "localhost:" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func serveUntilDone(ctx context.Context, srv *http.Server) error {
	if ctx == nil {
		ctx = context.Background()
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
