package health

import "math"

// Strategy names the normalization rule applied to a value.
type Strategy string

const (
	StrategyNone       Strategy = "none"
	StrategyPercentile Strategy = "percentile"
	StrategyBaseline   Strategy = "baseline"
	StrategyLog        Strategy = "log"
	StrategyLinear     Strategy = "linear"
)

// percentileScale maps the reference value to a score of 70.
const percentileScale = 70.0

// Reference is a resolved percentile reference for a metric. OK is false
// when the history cannot provide a positive reference.
type Reference struct {
	Value float64
	OK    bool
}

// PercentileReference computes the cleaned-history reference used by the
// percentile strategy. When the chosen percentile is zero the maximum of the
// cleaned history is used instead.
func PercentileReference(history []float64, cfg MetricConfig) Reference {
	clean := AssessQuality(history, cfg).CleanValues
	if len(clean) == 0 {
		return Reference{}
	}
	sorted := sortedCopy(clean)
	p := cfg.PercentileRef
	if p <= 0 {
		p = DefaultPercentileRef
	}
	ref := IndexedPercentile(sorted, p/100)
	if ref == 0 {
		ref = sorted[len(sorted)-1]
	}
	if ref <= 0 {
		return Reference{}
	}
	return Reference{Value: ref, OK: true}
}

// SelectStrategy returns the first applicable strategy for cfg. ref may be
// nil, in which case it is derived from history.
func SelectStrategy(cfg MetricConfig, history []float64, ref *Reference) Strategy {
	if cfg.UsePercentile && len(history) > 0 {
		r := resolveReference(cfg, history, ref)
		if r.OK {
			return StrategyPercentile
		}
	}
	if cfg.Baseline > 0 {
		return StrategyBaseline
	}
	if cfg.LogScale {
		return StrategyLog
	}
	return StrategyLinear
}

func resolveReference(cfg MetricConfig, history []float64, ref *Reference) Reference {
	if ref != nil {
		return *ref
	}
	return PercentileReference(history, cfg)
}

// Normalize maps a raw value to [0, 100] using the metric's strategy and
// polarity, rounded to one decimal. Invalid values score 0.
func Normalize(value float64, cfg MetricConfig, history []float64, ref *Reference) float64 {
	score, _ := normalize(value, cfg, history, ref)
	return score
}

func normalize(value float64, cfg MetricConfig, history []float64, ref *Reference) (float64, Strategy) {
	if !validValue(value) {
		return 0, StrategyNone
	}

	strategy := SelectStrategy(cfg, history, ref)
	var score float64
	switch strategy {
	case StrategyPercentile:
		r := resolveReference(cfg, history, ref)
		score = math.Min(100, value/r.Value*percentileScale)
	case StrategyBaseline:
		score = baselineScore(value / cfg.Baseline)
	case StrategyLog:
		score = logScore(value)
	default:
		score = linearScore(value, history)
	}

	if !cfg.HigherIsBetter {
		score = 100 - score
	}
	return round1(clamp(score, 0, 100)), strategy
}

func baselineScore(ratio float64) float64 {
	switch {
	case ratio >= 2:
		return math.Min(100, 85+(ratio-2)*5)
	case ratio >= 1:
		return 60 + 25*(ratio-1)
	default:
		return 60 * ratio
	}
}

func logScore(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Min(100, math.Log10(1+v)*50)
}

func linearScore(v float64, history []float64) float64 {
	valid := validValues(history)
	if len(valid) > 0 {
		if m := maxOf(valid); m > 0 {
			return math.Min(100, v/m*100)
		}
	}
	return logScore(v)
}
