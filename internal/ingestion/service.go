package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chaoscope/chaoscope/internal/registry"
	"github.com/chaoscope/chaoscope/internal/telemetry"
	"github.com/chaoscope/chaoscope/pkg/health"
	"github.com/chaoscope/chaoscope/pkg/series"
)

// ErrInvalidSeries is returned by Ingest for payloads that are not a usable
// series set.
var ErrInvalidSeries = errors.New("invalid series")

// ErrNoRegistry is returned by operations that need the repository registry
// when none is configured.
var ErrNoRegistry = errors.New("registry not configured")

// Registry is the subset of the repository registry the pipeline writes to.
type Registry interface {
	UpsertRepository(ctx context.Context, fullName string) (*registry.Repository, error)
	ListRepositories(ctx context.Context) ([]registry.Repository, error)
	RecordEvaluation(ctx context.Context, e registry.Evaluation) (*registry.Evaluation, error)
}

// Service orchestrates the evaluation pipeline.
type Service struct {
	storage   StorageClient
	evaluator *health.Evaluator
	registry  Registry
	metrics   *telemetry.Metrics
	log       zerolog.Logger
	parallel  int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRegistry records evaluations in the repository registry.
func WithRegistry(r Registry) ServiceOption {
	return func(s *Service) { s.registry = r }
}

// WithMetrics records evaluation telemetry.
func WithMetrics(m *telemetry.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = l.With().Str("component", "ingestion").Logger() }
}

// WithParallelism bounds how many repositories EvaluateAll evaluates at once.
func WithParallelism(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// NewService creates a new ingestion Service.
func NewService(storage StorageClient, evaluator *health.Evaluator, opts ...ServiceOption) *Service {
	s := &Service{
		storage:   storage,
		evaluator: evaluator,
		log:       zerolog.Nop(),
		parallel:  2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Storage returns the blob storage the service reads and writes.
func (s *Service) Storage() StorageClient { return s.storage }

// Catalog returns the evaluator's metric catalog.
func (s *Service) Catalog() *health.Catalog { return s.evaluator.Catalog() }

// HasRegistry reports whether evaluations are recorded in a registry.
func (s *Service) HasRegistry() bool { return s.registry != nil }

// Score evaluates a series set without persisting anything.
func (s *Service) Score(ctx context.Context, repoKey string, set series.Set) *health.EvaluationResult {
	start := time.Now()
	result := s.evaluator.Evaluate(ctx, repoKey, set)
	s.metrics.ObserveEvaluation(result, time.Since(start))
	return result
}

// Evaluate loads the stored series of a repository, evaluates it and
// persists the result. An error result is still persisted and recorded.
func (s *Service) Evaluate(ctx context.Context, repoKey string) (*health.EvaluationResult, error) {
	data, err := s.storage.GetSeries(ctx, repoKey)
	if err != nil {
		return nil, fmt.Errorf("load series for %s: %w", repoKey, err)
	}
	set, err := series.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode series for %s: %w", repoKey, err)
	}
	return s.EvaluateSet(ctx, repoKey, set)
}

// EvaluateSet evaluates a series set and persists the result under repoKey.
func (s *Service) EvaluateSet(ctx context.Context, repoKey string, set series.Set) (*health.EvaluationResult, error) {
	result := s.Score(ctx, repoKey, set)

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	if err := s.storage.PutResult(ctx, repoKey, data); err != nil {
		return nil, fmt.Errorf("store result for %s: %w", repoKey, err)
	}

	if s.registry != nil {
		if err := s.record(ctx, repoKey, result, data); err != nil {
			return nil, err
		}
	}

	ev := s.log.Info().Str("repo", repoKey)
	if result.Failed() {
		ev.Str("error", result.Error).Msg("evaluation recorded without data")
	} else {
		ev.Float64("score", result.FinalScores.OverallScore).Msg("evaluation recorded")
	}
	return result, nil
}

func (s *Service) record(ctx context.Context, repoKey string, result *health.EvaluationResult, data []byte) error {
	repo, err := s.registry.UpsertRepository(ctx, repoKey)
	if err != nil {
		return fmt.Errorf("register %s: %w", repoKey, err)
	}

	rec := registry.Evaluation{
		RepositoryID: repo.ID,
		Status:       registry.StatusCompleted,
		Result:       data,
	}
	if result.Failed() {
		rec.Status = registry.StatusNoData
		msg := result.Error
		rec.ErrorMessage = &msg
	} else {
		score := result.FinalScores.OverallScore
		level := string(result.FinalScores.OverallLevel)
		rec.OverallScore = &score
		rec.OverallLevel = &level
		if result.TimeRange != nil {
			rec.ValidMonths = result.TimeRange.ValidMonths
		}
	}
	if _, err := s.registry.RecordEvaluation(ctx, rec); err != nil {
		return fmt.Errorf("record evaluation for %s: %w", repoKey, err)
	}
	return nil
}

// Ingest validates a series payload, stores it and registers the repository.
// The stored blob is the normalized encoding of the decoded set.
func (s *Service) Ingest(ctx context.Context, repoKey string, data []byte) (series.Set, error) {
	set, err := series.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeries, err)
	}
	if set.IsEmpty() {
		return nil, fmt.Errorf("%w: no monthly data points", ErrInvalidSeries)
	}

	if err := s.store(ctx, repoKey, set); err != nil {
		return nil, err
	}
	s.log.Debug().Str("repo", repoKey).Int("metrics", len(set)).Msg("series stored")
	return set, nil
}

// Merge overlays a partial series payload onto the stored series of repoKey
// and stores the result. A repository without stored series starts empty.
func (s *Service) Merge(ctx context.Context, repoKey string, data []byte) (series.Set, series.MergeStats, error) {
	update, err := series.Decode(data)
	if err != nil {
		return nil, series.MergeStats{}, fmt.Errorf("%w: %v", ErrInvalidSeries, err)
	}

	base := series.Set{}
	stored, err := s.storage.GetSeries(ctx, repoKey)
	switch {
	case err == nil:
		if base, err = series.Decode(stored); err != nil {
			return nil, series.MergeStats{}, fmt.Errorf("decode stored series for %s: %w", repoKey, err)
		}
	case !errors.Is(err, ErrSeriesNotFound):
		return nil, series.MergeStats{}, fmt.Errorf("load series for %s: %w", repoKey, err)
	}

	stats := series.DiffStats(base, update)
	merged := series.Merge(base, update)
	if merged.IsEmpty() {
		return nil, stats, fmt.Errorf("%w: no monthly data points", ErrInvalidSeries)
	}
	if err := s.store(ctx, repoKey, merged); err != nil {
		return nil, stats, err
	}
	s.log.Debug().Str("repo", repoKey).
		Int("added_metrics", stats.AddedMetrics).
		Int("updated_months", stats.UpdatedMonths).
		Msg("series merged")
	return merged, stats, nil
}

func (s *Service) store(ctx context.Context, repoKey string, set series.Set) error {
	normalized, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}
	if err := s.storage.PutSeries(ctx, repoKey, normalized); err != nil {
		return fmt.Errorf("store series for %s: %w", repoKey, err)
	}
	if s.registry != nil {
		if _, err := s.registry.UpsertRepository(ctx, repoKey); err != nil {
			return fmt.Errorf("register %s: %w", repoKey, err)
		}
	}
	return nil
}

// EvaluateAll re-evaluates every registered repository and returns how many
// evaluations were recorded. Failures of individual repositories are joined
// into the returned error; the rest still run.
func (s *Service) EvaluateAll(ctx context.Context) (int, error) {
	if s.registry == nil {
		return 0, ErrNoRegistry
	}
	repos, err := s.registry.ListRepositories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list repositories: %w", err)
	}

	var (
		mu    sync.Mutex
		count int
		errs  []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.parallel)
	for _, repo := range repos {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			_, err := s.Evaluate(ctx, repo.FullName)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn().Err(err).Str("repo", repo.FullName).Msg("re-evaluation failed")
				errs = append(errs, err)
				return nil
			}
			count++
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	s.log.Info().Int("repos", len(repos)).Int("evaluated", count).Msg("re-evaluation finished")
	return count, errors.Join(errs...)
}
