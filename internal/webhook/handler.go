package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chaoscope/chaoscope/internal/ingestion"
	"github.com/chaoscope/chaoscope/pkg/health"
	"github.com/chaoscope/chaoscope/pkg/series"
)

// Processor stores and evaluates pushed series.
type Processor interface {
	Ingest(ctx context.Context, repoKey string, data []byte) (series.Set, error)
	Evaluate(ctx context.Context, repoKey string) (*health.EvaluationResult, error)
}

// SeriesPush is the webhook payload.
type SeriesPush struct {
	Repository string          `json:"repository"`
	Metrics    json.RawMessage `json:"metrics"`
}

var fullName = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Invalidator drops cached results for a repository.
type Invalidator interface {
	Delete(ctx context.Context, repoKey string)
}

// Handler processes incoming series pushes.
type Handler struct {
	webhookSecret []byte
	processor     Processor
	cache         Invalidator
	log           zerolog.Logger
}

// NewHandler creates a new webhook Handler. cache may be nil.
func NewHandler(webhookSecret []byte, processor Processor, cache Invalidator, log zerolog.Logger) *Handler {
	return &Handler{
		webhookSecret: webhookSecret,
		processor:     processor,
		cache:         cache,
		log:           log.With().Str("component", "webhook").Logger(),
	}
}

// ServeHTTP handles incoming webhook requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20)) // 10 MB limit
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := VerifySignature(body, r.Header.Get(SignatureHeader), h.webhookSecret); err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var push SeriesPush
	if err := json.Unmarshal(body, &push); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if !fullName.MatchString(push.Repository) || strings.Contains(push.Repository, "..") {
		http.Error(w, "invalid repository", http.StatusBadRequest)
		return
	}
	if len(push.Metrics) == 0 {
		http.Error(w, "missing metrics", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.processor.Ingest(ctx, push.Repository, push.Metrics); err != nil {
		if errors.Is(err, ingestion.ErrInvalidSeries) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Str("repo", push.Repository).Msg("store pushed series")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		h.cache.Delete(ctx, push.Repository)
	}

	result, err := h.processor.Evaluate(ctx, push.Repository)
	if err != nil {
		h.log.Error().Err(err).Str("repo", push.Repository).Msg("evaluate pushed series")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"status": "accepted", "repository": push.Repository}
	if result.Failed() {
		resp["error"] = result.Error
	} else {
		resp["overallScore"] = result.FinalScores.OverallScore
		resp["overallLevel"] = result.FinalScores.OverallLevel
	}
	h.log.Info().Str("repo", push.Repository).Bool("scored", !result.Failed()).Msg("series push processed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(resp)
}
