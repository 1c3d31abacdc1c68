package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chaoscope/chaoscope/pkg/series"
)

// Evaluator defaults.
const (
	DefaultWindowMonths = 12
	DefaultWorkers      = 4
)

// State is a stage of a single evaluation.
type State string

const (
	StateNoData      State = "no_data"
	StateScoring     State = "scoring"
	StateAggregating State = "aggregating"
	StateReporting   State = "reporting"
	StateDone        State = "done"
	StateError       State = "error"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCatalog replaces the default metric catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithLogger sets the logger used for skipped months and completion lines.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithWorkers bounds the number of months scored concurrently.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithWindow sets how many trailing months are evaluated. n <= 0 evaluates
// every month in the input.
func WithWindow(n int) Option {
	return func(e *Evaluator) { e.window = n }
}

// WithStateHook registers a callback invoked on every state transition.
// The hook runs on the calling goroutine.
func WithStateHook(fn func(from, to State)) Option {
	return func(e *Evaluator) { e.onTransition = fn }
}

// Evaluator runs the full scoring pipeline. It keeps no state between calls
// and is safe for concurrent use.
type Evaluator struct {
	catalog      *Catalog
	log          zerolog.Logger
	workers      int
	window       int
	onTransition func(from, to State)
}

// NewEvaluator creates an evaluator with the default catalog, a 12-month
// window and four workers unless overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		catalog: DefaultCatalog(),
		log:     zerolog.Nop(),
		workers: DefaultWorkers,
		window:  DefaultWindowMonths,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the evaluator scores against.
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

type run struct {
	e     *Evaluator
	state State
	log   zerolog.Logger
}

func (r *run) to(next State) {
	prev := r.state
	r.state = next
	r.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("evaluation state")
	if r.e.onTransition != nil {
		r.e.onTransition(prev, next)
	}
}

func (r *run) fail(msg string) *EvaluationResult {
	r.to(StateError)
	r.log.Warn().Str("reason", msg).Msg("evaluation failed")
	return errorResult(msg)
}

type monthOutcome struct {
	score  MonthlyOverallScore
	reason SkipReason
}

// Evaluate scores a repository's series set. It always returns a result;
// failures are reported through EvaluationResult.Error.
func (e *Evaluator) Evaluate(ctx context.Context, repoKey string, set series.Set) *EvaluationResult {
	started := time.Now()
	r := &run{
		e:     e,
		state: StateNoData,
		log:   e.log.With().Str("repo", repoKey).Logger(),
	}

	if len(set) == 0 {
		return r.fail("no metric series provided")
	}
	set = e.catalog.Canonicalize(set)
	months := set.Months()
	if len(months) == 0 {
		return r.fail("no monthly data points found")
	}
	if err := ctx.Err(); err != nil {
		return r.fail("evaluation cancelled")
	}

	window := series.TrailingMonths(months, e.window)

	r.to(StateScoring)
	scorer := newMonthScorer(e.catalog, set)
	outcomes := make([]monthOutcome, len(window))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, month := range window {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, reason := scorer.score(month)
			outcomes[i] = monthOutcome{score: score, reason: reason}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return r.fail("evaluation cancelled")
		}
		return r.fail(fmt.Sprintf("scoring months: %v", err))
	}

	var monthly []MonthlyOverallScore
	var skipped []SkippedMonth
	for i, o := range outcomes {
		if o.reason != SkipNone {
			skipped = append(skipped, SkippedMonth{Month: window[i], Reason: o.reason})
			r.log.Debug().Str("month", window[i]).Str("reason", string(o.reason)).Msg("month skipped")
			continue
		}
		monthly = append(monthly, o.score)
	}
	if len(monthly) == 0 {
		return r.fail("no month had sufficient data to score")
	}

	r.to(StateAggregating)
	final := e.aggregate(monthly)
	if len(final.Dimensions) == 0 {
		return r.fail("no dimension scores available")
	}

	r.to(StateReporting)
	report := GenerateReport(final, monthly)

	r.to(StateDone)
	result := &EvaluationResult{
		RepoKey: repoKey,
		TimeRange: &TimeRange{
			Start:           window[0],
			End:             window[len(window)-1],
			TotalMonths:     len(months),
			EvaluatedMonths: len(window),
			ValidMonths:     len(monthly),
		},
		MonthlyScores: monthly,
		SkippedMonths: skipped,
		FinalScores:   &final,
		Report:        &report,
	}
	r.log.Info().
		Float64("overall_score", final.OverallScore).
		Str("level", string(final.OverallLevel)).
		Int("valid_months", len(monthly)).
		Int("skipped_months", len(skipped)).
		Dur("duration", time.Since(started)).
		Msg("evaluation complete")
	return result
}

func (e *Evaluator) aggregate(monthly []MonthlyOverallScore) FinalScores {
	overall := make([]float64, len(monthly))
	perDim := make(map[DimensionID][]float64)
	perDimQuality := make(map[DimensionID][]float64)
	for i, m := range monthly {
		overall[i] = m.OverallScore
		for id, d := range m.Dimensions {
			perDim[id] = append(perDim[id], d.Score)
			perDimQuality[id] = append(perDimQuality[id], d.Quality)
		}
	}

	dims := make(map[DimensionID]FinalDimensionScore)
	for _, d := range e.catalog.dimensions {
		scores, ok := perDim[d.ID]
		if !ok {
			continue
		}
		score := round1(RobustAggregate(scores, d.ID))
		dims[d.ID] = FinalDimensionScore{
			Score:           score,
			Level:           LevelFromScore(score),
			MonthlyCount:    len(scores),
			OutliersRemoved: CountOutliers(scores, d.ID),
			Quality:         round2(mean(perDimQuality[d.ID])),
		}
	}

	overallScore := round1(RobustAggregate(overall, ""))
	return FinalScores{
		OverallScore: overallScore,
		OverallLevel: LevelFromScore(overallScore),
		Dimensions:   dims,
	}
}
