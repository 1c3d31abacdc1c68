package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chaoscope/chaoscope/internal/ingestion"
	"github.com/chaoscope/chaoscope/pkg/health"
	"github.com/chaoscope/chaoscope/pkg/series"
)

// cacheHeader reports where a health result came from.
const cacheHeader = "X-Chaoscope-Cache"

// handleEvaluate scores an uploaded series set without persisting it.
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	set, err := series.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid series: "+err.Error())
		return
	}

	result := h.svc.Score(r.Context(), r.URL.Query().Get("repo"), set)
	writeResult(w, result)
}

func (h *Handler) handlePutSeries(w http.ResponseWriter, r *http.Request) {
	key, err := repoKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.svc.Ingest(r.Context(), key, data)
	if errors.Is(err, ingestion.ErrInvalidSeries) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("repo", key).Msg("store series failed")
		writeError(w, http.StatusInternalServerError, "failed to store series")
		return
	}
	h.cache.Delete(r.Context(), key)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "stored",
		"repository": key,
		"metrics":    len(set),
		"months":     len(set.Months()),
	})
}

// handlePatchSeries merges a partial series set into the stored one.
func (h *Handler) handlePatchSeries(w http.ResponseWriter, r *http.Request) {
	key, err := repoKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, stats, err := h.svc.Merge(r.Context(), key, data)
	if errors.Is(err, ingestion.ErrInvalidSeries) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("repo", key).Msg("merge series failed")
		writeError(w, http.StatusInternalServerError, "failed to merge series")
		return
	}
	h.cache.Delete(r.Context(), key)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "merged",
		"repository":     key,
		"metrics":        len(set),
		"months":         len(set.Months()),
		"added_metrics":  stats.AddedMetrics,
		"updated_months": stats.UpdatedMonths,
	})
}

// handleHealth serves the cached result, then the stored result, and only
// evaluates when neither exists.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	key, err := repoKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	if result, ok := h.cache.Get(ctx, key); ok {
		w.Header().Set(cacheHeader, "hit")
		writeResult(w, result)
		return
	}

	if data, err := h.svc.Storage().GetResult(ctx, key); err == nil {
		var result health.EvaluationResult
		if err := json.Unmarshal(data, &result); err == nil {
			if !result.Failed() {
				h.cache.Set(ctx, key, &result)
			}
			w.Header().Set(cacheHeader, "stored")
			writeResult(w, &result)
			return
		}
		h.log.Warn().Str("repo", key).Msg("stored result unreadable, re-evaluating")
	}

	w.Header().Set(cacheHeader, "miss")
	h.evaluateStored(w, r, key)
}

func (h *Handler) handleReevaluate(w http.ResponseWriter, r *http.Request) {
	key, err := repoKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.evaluateStored(w, r, key)
}

func (h *Handler) evaluateStored(w http.ResponseWriter, r *http.Request, key string) {
	result, err := h.svc.Evaluate(r.Context(), key)
	if errors.Is(err, ingestion.ErrSeriesNotFound) {
		writeError(w, http.StatusNotFound, "no series stored for "+key)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("repo", key).Msg("evaluation failed")
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}
	if result.Failed() {
		h.cache.Delete(r.Context(), key)
	} else {
		h.cache.Set(r.Context(), key, result)
	}
	writeResult(w, result)
}

// writeResult answers 404 with {"error": ...} for error results.
func writeResult(w http.ResponseWriter, result *health.EvaluationResult) {
	if result.Failed() {
		writeError(w, http.StatusNotFound, result.Error)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
