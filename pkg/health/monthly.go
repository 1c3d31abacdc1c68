package health

import (
	"math"

	"github.com/chaoscope/chaoscope/pkg/series"
)

// Monthly scoring thresholds.
const (
	// MinMetricQuality is the lowest history quality a metric may have and
	// still contribute to a month.
	MinMetricQuality = 0.3
	// MinValidMetricRatio is the share of catalog metrics that must carry a
	// valid value for a month to be scored.
	MinValidMetricRatio = 0.3
	// DimensionFloor is the lowest score a scored dimension can receive.
	DimensionFloor = 30.0
	// MinOverallScore drops months whose overall score is effectively zero.
	MinOverallScore = 0.1
	// dampingWindow is the number of calendar months, the current one
	// included, averaged for growth and index metrics.
	dampingWindow = 3
)

// ApplyQualityPenalty scales a normalized score by data quality, keeping at
// least 70% of the score for the worst quality.
func ApplyQualityPenalty(score, quality float64) float64 {
	return score * (0.7 + 0.3*clamp(quality, 0, 1))
}

// ValidMetricRatio returns the fraction of catalog metrics that have a valid
// value in month.
func ValidMetricRatio(month string, set series.Set, catalog *Catalog) float64 {
	if catalog.Len() == 0 {
		return 0
	}
	set = catalog.Canonicalize(set)
	valid := 0
	for _, key := range catalog.keys {
		if v, ok := set[key].Value(month); ok && validValue(v) {
			valid++
		}
	}
	return float64(valid) / float64(catalog.Len())
}

// metricContext holds everything about one metric that does not vary by
// month. Built once per evaluation and read-only afterwards.
type metricContext struct {
	cfg        MetricConfig
	raw        series.RawSeries
	history    []float64
	assessment QualityAssessment
	ref        Reference
}

// monthScorer scores individual months of one series set.
type monthScorer struct {
	catalog *Catalog
	set     series.Set
	metrics map[string]*metricContext
}

// newMonthScorer prepares per-metric history statistics. set must already be
// canonicalized.
func newMonthScorer(catalog *Catalog, set series.Set) *monthScorer {
	s := &monthScorer{
		catalog: catalog,
		set:     set,
		metrics: make(map[string]*metricContext),
	}
	for _, key := range catalog.keys {
		raw, ok := set[key]
		if !ok {
			continue
		}
		cfg := catalog.metrics[key]
		history := raw.Values()
		mc := &metricContext{
			cfg:        cfg,
			raw:        raw,
			history:    history,
			assessment: AssessQuality(history, cfg),
		}
		if cfg.UsePercentile {
			mc.ref = PercentileReference(history, cfg)
		}
		s.metrics[key] = mc
	}
	return s
}

// ScoreMonth scores a single month of set. A non-empty SkipReason means the
// month was dropped and the returned score is zero-valued.
func ScoreMonth(month string, set series.Set, catalog *Catalog) (MonthlyOverallScore, SkipReason) {
	set = catalog.Canonicalize(set)
	return newMonthScorer(catalog, set).score(month)
}

func (s *monthScorer) validRatio(month string) float64 {
	valid := 0
	for _, key := range s.catalog.keys {
		mc, ok := s.metrics[key]
		if !ok {
			continue
		}
		if v, ok := mc.raw.Value(month); ok && validValue(v) {
			valid++
		}
	}
	return float64(valid) / float64(s.catalog.Len())
}

func (s *monthScorer) score(month string) (MonthlyOverallScore, SkipReason) {
	if s.catalog.Len() == 0 || s.validRatio(month) < MinValidMetricRatio {
		return MonthlyOverallScore{}, SkipInsufficientData
	}

	dims := make(map[DimensionID]MonthlyDimensionScore)
	var total float64
	for _, dim := range s.catalog.dimensions {
		ds, ok := s.scoreDimension(dim, month)
		if !ok {
			continue
		}
		dims[dim.ID] = ds
		total += ds.Score
	}
	if len(dims) == 0 {
		return MonthlyOverallScore{}, SkipNoDimensionScores
	}

	overall := total / float64(len(dims))
	if overall < MinOverallScore {
		return MonthlyOverallScore{}, SkipLowScore
	}
	return MonthlyOverallScore{
		Month:        month,
		OverallScore: round2(overall),
		Dimensions:   dims,
	}, SkipNone
}

func (s *monthScorer) scoreDimension(dim Dimension, month string) (MonthlyDimensionScore, bool) {
	var weighted, totalWeight, qualitySum float64
	count := 0
	for _, m := range dim.Metrics {
		mc, ok := s.metrics[m.Key]
		if !ok {
			continue
		}
		raw, ok := mc.raw.Value(month)
		if !ok || !validValue(raw) {
			continue
		}
		if mc.assessment.Quality < MinMetricQuality {
			continue
		}

		value := raw
		if mc.cfg.Type == MetricGrowth || mc.cfg.Type == MetricIndex {
			value = damp(mc.raw, month, raw)
		}
		normalized := Normalize(value, mc.cfg, mc.history, &mc.ref)
		final := ApplyQualityPenalty(normalized, mc.assessment.Quality)

		w := m.Weight
		if w <= 0 {
			w = mc.cfg.Weight
		}
		if w <= 0 {
			continue
		}
		weighted += final * w
		totalWeight += w
		qualitySum += mc.assessment.Quality
		count++
	}
	if count == 0 || totalWeight <= 0 {
		return MonthlyDimensionScore{}, false
	}
	return MonthlyDimensionScore{
		Score:        round2(math.Max(DimensionFloor, weighted/totalWeight)),
		MetricsCount: count,
		Quality:      round2(qualitySum / float64(count)),
	}, true
}

// damp lifts a spiky growth or index value to the mean of the values present
// in the trailing calendar window when the raw value falls below it.
func damp(raw series.RawSeries, month string, value float64) float64 {
	recent := validValues(raw.WindowValues(month, dampingWindow))
	if len(recent) == 0 {
		return value
	}
	return math.Max(value, mean(recent))
}
