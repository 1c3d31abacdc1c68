package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chaoscope/chaoscope/internal/registry"
	"github.com/chaoscope/chaoscope/pkg/health"
)

const defaultHistoryLimit = 20

func (h *Handler) requireRegistry(w http.ResponseWriter) bool {
	if h.registry == nil {
		writeError(w, http.StatusNotImplemented, "repository registry not configured")
		return false
	}
	return true
}

func (h *Handler) handleListRepos(w http.ResponseWriter, r *http.Request) {
	if !h.requireRegistry(w) {
		return
	}
	repos, err := h.registry.ListRepositories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list repositories failed")
		writeError(w, http.StatusInternalServerError, "failed to list repositories")
		return
	}
	if repos == nil {
		repos = []registry.Repository{}
	}
	writeJSON(w, http.StatusOK, repos)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	key, err := repoKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireRegistry(w) {
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, registry.MaxHistoryLimit)
	}

	evals, err := h.registry.ListEvaluations(r.Context(), key, limit)
	if err != nil {
		h.log.Error().Err(err).Str("repo", key).Msg("list evaluations failed")
		writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	if evals == nil {
		evals = []registry.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

func (h *Handler) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	key, err := repoKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireRegistry(w) {
		return
	}

	err = h.registry.DeleteRepository(r.Context(), key)
	if errors.Is(err, registry.ErrNotFound) {
		writeError(w, http.StatusNotFound, "repository not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("repo", key).Msg("delete repository failed")
		writeError(w, http.StatusInternalServerError, "failed to delete repository")
		return
	}
	h.cache.Delete(r.Context(), key)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type catalogResponse struct {
	Metrics    []health.MetricConfig `json:"metrics"`
	Dimensions []health.Dimension    `json:"dimensions"`
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Metrics:    c.Metrics(),
		Dimensions: c.Dimensions(),
	})
}
