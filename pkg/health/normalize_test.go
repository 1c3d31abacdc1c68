package health_test

import (
	"math"
	"testing"

	"github.com/chaoscope/chaoscope/pkg/health"
)

func TestNormalizeFlatHistoryLinear(t *testing.T) {
	history := []float64{10, 10, 10, 10, 10}
	cfg := health.MetricConfig{Key: "x", Type: health.MetricCount, Weight: 1, HigherIsBetter: true, IQRMultiplier: 1.5}

	qa := health.AssessQuality(history, cfg)
	if qa.Quality != 1.0 {
		t.Fatalf("Quality = %v, want 1.0", qa.Quality)
	}
	score := health.Normalize(10, cfg, history, nil)
	if score != 100.0 {
		t.Errorf("Normalize = %v, want 100.0", score)
	}
	if got := health.ApplyQualityPenalty(score, qa.Quality); got != 100.0 {
		t.Errorf("ApplyQualityPenalty = %v, want 100.0", got)
	}
}

func TestNormalizeInvertedBaseline(t *testing.T) {
	cfg := health.MetricConfig{Key: "x", Baseline: 3.0, HigherIsBetter: false, IQRMultiplier: 1.5}
	if got := health.Normalize(1.0, cfg, nil, nil); got != 80.0 {
		t.Errorf("Normalize = %v, want 80.0", got)
	}
}

func TestNormalizeBaselineBands(t *testing.T) {
	cfg := health.MetricConfig{Key: "x", Baseline: 2.0, HigherIsBetter: true}
	tests := []struct {
		value float64
		want  float64
	}{
		{0, 0},
		{1, 30},
		{2, 60},
		{3, 72.5},
		{4, 85},
		{6, 90},
		{40, 100},
	}
	for _, tt := range tests {
		if got := health.Normalize(tt.value, cfg, nil, nil); got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestNormalizePercentile(t *testing.T) {
	cfg := health.MetricConfig{Key: "x", HigherIsBetter: true, IQRMultiplier: 1.5, UsePercentile: true, PercentileRef: 75}
	history := []float64{10, 20, 30, 40}

	ref := health.PercentileReference(history, cfg)
	if !ref.OK || ref.Value != 40 {
		t.Fatalf("PercentileReference = %+v, want {40 true}", ref)
	}
	if got := health.Normalize(40, cfg, history, nil); got != 70 {
		t.Errorf("Normalize(reference) = %v, want 70", got)
	}
	if got := health.Normalize(20, cfg, history, &ref); got != 35 {
		t.Errorf("Normalize(half reference) = %v, want 35", got)
	}
	if got := health.Normalize(80, cfg, history, &ref); got != 100 {
		t.Errorf("Normalize(twice reference) = %v, want 100", got)
	}
}

func TestPercentileReferenceZeroFallsBackToMax(t *testing.T) {
	cfg := health.MetricConfig{UsePercentile: true, PercentileRef: 75, IQRMultiplier: 1.5}
	ref := health.PercentileReference([]float64{0, 0, 0, 0, 8}, cfg)
	if !ref.OK || ref.Value != 8 {
		t.Errorf("PercentileReference = %+v, want {8 true}", ref)
	}
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     health.MetricConfig
		history []float64
		want    health.Strategy
	}{
		{"percentile", health.MetricConfig{UsePercentile: true, PercentileRef: 75}, []float64{1, 2, 3}, health.StrategyPercentile},
		{"percentile without history", health.MetricConfig{UsePercentile: true, Baseline: 2}, nil, health.StrategyBaseline},
		{"percentile with zero history", health.MetricConfig{UsePercentile: true}, []float64{0, 0, 0}, health.StrategyLinear},
		{"baseline before log", health.MetricConfig{Baseline: 2, LogScale: true}, []float64{1}, health.StrategyBaseline},
		{"log", health.MetricConfig{LogScale: true}, []float64{1}, health.StrategyLog},
		{"linear", health.MetricConfig{}, []float64{1}, health.StrategyLinear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := health.SelectStrategy(tt.cfg, tt.history, nil); got != tt.want {
				t.Errorf("SelectStrategy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeLogScale(t *testing.T) {
	cfg := health.MetricConfig{LogScale: true, HigherIsBetter: true}
	if got := health.Normalize(9, cfg, nil, nil); got != 50 {
		t.Errorf("Normalize(9) = %v, want 50", got)
	}
	if got := health.Normalize(99, cfg, nil, nil); got != 100 {
		t.Errorf("Normalize(99) = %v, want 100", got)
	}
	if got := health.Normalize(0, cfg, nil, nil); got != 0 {
		t.Errorf("Normalize(0) = %v, want 0", got)
	}
}

func TestNormalizeLinearWithoutPositiveHistory(t *testing.T) {
	cfg := health.MetricConfig{HigherIsBetter: true}
	if got := health.Normalize(9, cfg, []float64{0, 0}, nil); got != 50 {
		t.Errorf("Normalize = %v, want 50", got)
	}
}

func TestNormalizeInvalidValues(t *testing.T) {
	for _, cfg := range []health.MetricConfig{
		{HigherIsBetter: true},
		{HigherIsBetter: false, Baseline: 3},
	} {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
			if got := health.Normalize(v, cfg, []float64{1, 2, 3}, nil); got != 0 {
				t.Errorf("Normalize(%v, higherIsBetter=%v) = %v, want 0", v, cfg.HigherIsBetter, got)
			}
		}
	}
}

func TestNormalizeBounds(t *testing.T) {
	history := []float64{0, 1, 5, 20, 100, 400}
	for _, cfg := range health.DefaultCatalog().Metrics() {
		for _, v := range []float64{0, 0.001, 0.5, 1, 3, 14, 99, 1e3, 1e6, 1e12} {
			got := health.Normalize(v, cfg, history, nil)
			if got < 0 || got > 100 {
				t.Errorf("Normalize(%v, %s) = %v, want within [0, 100]", v, cfg.Key, got)
			}
		}
	}
}

func TestNormalizePolarity(t *testing.T) {
	history := []float64{1, 2, 4, 8, 16}
	for _, cfg := range health.DefaultCatalog().Metrics() {
		if cfg.HigherIsBetter {
			continue
		}
		prev := math.Inf(1)
		for v := 0.0; v <= 200; v += 0.5 {
			got := health.Normalize(v, cfg, history, nil)
			if got > prev {
				t.Fatalf("%s: Normalize(%v) = %v rose above %v", cfg.Key, v, got, prev)
			}
			prev = got
		}
	}
}
