package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chaoscope/chaoscope/pkg/health"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestObserveEvaluation(t *testing.T) {
	m := New()

	m.ObserveEvaluation(&health.EvaluationResult{
		RepoKey: "acme/widget",
		SkippedMonths: []health.SkippedMonth{
			{Month: "2024-01", Reason: health.SkipInsufficientData},
			{Month: "2024-02", Reason: health.SkipInsufficientData},
		},
		FinalScores: &health.FinalScores{OverallScore: 70},
	}, 20*time.Millisecond)
	m.ObserveEvaluation(&health.EvaluationResult{Error: "no monthly data points found"}, time.Millisecond)

	out := scrape(t, m)
	for _, want := range []string{
		`chaoscope_evaluations_total{outcome="success"} 1`,
		`chaoscope_evaluations_total{outcome="no_data"} 1`,
		`chaoscope_skipped_months_total{reason="insufficient_data"} 2`,
		`chaoscope_evaluation_duration_seconds_count 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvaluation(&health.EvaluationResult{}, time.Second)
}
