// Package api implements the hosted chaoscope REST API.
// It serves evaluations backed by blob storage, the result cache and, when
// configured, the Postgres repository registry.
package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chaoscope/chaoscope/internal/ingestion"
	"github.com/chaoscope/chaoscope/internal/registry"
)

// maxBodyBytes bounds request bodies after decompression.
const maxBodyBytes = 10 << 20

// RegistryReader is the registry surface the read endpoints need.
type RegistryReader interface {
	ListRepositories(ctx context.Context) ([]registry.Repository, error)
	ListEvaluations(ctx context.Context, fullName string, limit int) ([]registry.Evaluation, error)
	DeleteRepository(ctx context.Context, fullName string) error
}

// Handler is the top-level API handler for the hosted chaoscope service.
type Handler struct {
	svc      *ingestion.Service
	registry RegistryReader
	cache    ResultCache
	log      zerolog.Logger
}

// NewHandler creates a new API handler. reg may be nil, in which case the
// registry-backed endpoints answer 501.
func NewHandler(svc *ingestion.Service, reg RegistryReader, cache ResultCache, log zerolog.Logger) *Handler {
	if cache == nil {
		cache = NewMemoryCacheFromEnv()
	}
	return &Handler{
		svc:      svc,
		registry: reg,
		cache:    cache,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Write endpoints
	mux.HandleFunc("POST /api/v1/evaluate", h.handleEvaluate)
	mux.HandleFunc("PUT /api/v1/repos/{owner}/{repo}/series", h.handlePutSeries)
	mux.HandleFunc("PATCH /api/v1/repos/{owner}/{repo}/series", h.handlePatchSeries)
	mux.HandleFunc("POST /api/v1/repos/{owner}/{repo}/evaluate", h.handleReevaluate)
	mux.HandleFunc("DELETE /api/v1/repos/{owner}/{repo}", h.handleDeleteRepo)

	// Read endpoints
	mux.HandleFunc("GET /api/v1/repos", h.handleListRepos)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/health", h.handleHealth)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/history", h.handleHistory)
	mux.HandleFunc("GET /api/v1/catalog", h.handleCatalog)
}

var namePart = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// repoKey extracts "owner/repo" from the request path.
func repoKey(r *http.Request) (string, error) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")
	for _, part := range []string{owner, repo} {
		if !namePart.MatchString(part) || strings.Trim(part, ".") == "" {
			return "", fmt.Errorf("invalid repository name %q", owner+"/"+repo)
		}
	}
	return owner + "/" + repo, nil
}

// readBody reads a request body, transparently inflating gzip payloads.
func readBody(r *http.Request) ([]byte, error) {
	var body io.Reader = r.Body
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer zr.Close()
		body = zr
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
