// Package health implements the chaoscope community-health scoring engine.
// It turns monthly repository metrics into per-dimension scores, an overall
// score, and a rule-based report. Every function here is pure: results depend
// only on the input series and the immutable metric catalog.
package health

// MetricType classifies how a metric's raw values behave over time.
type MetricType string

const (
	MetricCount  MetricType = "count"
	MetricRate   MetricType = "rate"
	MetricTime   MetricType = "time"
	MetricGrowth MetricType = "growth"
	MetricIndex  MetricType = "index"
	MetricFactor MetricType = "factor"
)

// MetricConfig describes how one metric is cleaned and normalized.
// Immutable once placed in a Catalog.
type MetricConfig struct {
	Key            string     `json:"key"`
	Type           MetricType `json:"type"`
	Weight         float64    `json:"weight"`
	HigherIsBetter bool       `json:"higherIsBetter"`
	IQRMultiplier  float64    `json:"iqrMultiplier"`
	Baseline       float64    `json:"baseline,omitempty"` // 0 means no baseline
	UsePercentile  bool       `json:"usePercentile"`
	PercentileRef  float64    `json:"percentileRef"`
	LogScale       bool       `json:"logScale"`
}

// DimensionID identifies one of the six fixed health dimensions.
type DimensionID string

const (
	DimActivity          DimensionID = "activity"
	DimContributors      DimensionID = "contributors"
	DimResponsiveness    DimensionID = "responsiveness"
	DimQuality           DimensionID = "quality"
	DimRisk              DimensionID = "risk"
	DimCommunityInterest DimensionID = "community_interest"
)

// DimensionOrder is the fixed presentation and iteration order of dimensions.
var DimensionOrder = []DimensionID{
	DimActivity,
	DimContributors,
	DimResponsiveness,
	DimQuality,
	DimRisk,
	DimCommunityInterest,
}

// Dimension groups metric keys under one health concern.
type Dimension struct {
	ID          DimensionID       `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metrics     []DimensionMetric `json:"metrics"`
}

// DimensionMetric is a metric key with its dimension-local weight.
type DimensionMetric struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// QualityAssessment is the cleaned view of one metric's history.
// Recomputed on demand, never persisted.
type QualityAssessment struct {
	CleanValues  []float64 `json:"cleanValues"`
	Quality      float64   `json:"quality"`
	OutlierCount int       `json:"outlierCount"`
	ZeroRatio    float64   `json:"zeroRatio"`
}

// MonthlyDimensionScore is one dimension's score for one month.
type MonthlyDimensionScore struct {
	Score        float64 `json:"score"`
	MetricsCount int     `json:"metricsCount"`
	Quality      float64 `json:"quality"`
}

// MonthlyOverallScore is the scored view of one month.
type MonthlyOverallScore struct {
	Month        string                                `json:"month"`
	OverallScore float64                               `json:"overallScore"`
	Dimensions   map[DimensionID]MonthlyDimensionScore `json:"dimensions"`
}

// SkipReason explains why a month was dropped from scoring.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipInsufficientData  SkipReason = "insufficient_data"
	SkipNoDimensionScores SkipReason = "no_dimension_scores"
	SkipLowScore          SkipReason = "low_score"
)

// SkippedMonth records a month that did not make it into MonthlyScores.
type SkippedMonth struct {
	Month  string     `json:"month"`
	Reason SkipReason `json:"reason"`
}

// Level is a qualitative health band. The label strings are a fixed
// contract with downstream consumers and must not be translated.
type Level string

const (
	LevelExcellent Level = "优秀"
	LevelGood      Level = "良好"
	LevelFair      Level = "一般"
	LevelPoor      Level = "较差"
	LevelCritical  Level = "很差"
)

// LevelFromScore maps a 0-100 score to its level.
func LevelFromScore(score float64) Level {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelGood
	case score >= 40:
		return LevelFair
	case score >= 20:
		return LevelPoor
	default:
		return LevelCritical
	}
}

// FinalDimensionScore is a dimension's score aggregated over all valid months.
type FinalDimensionScore struct {
	Score           float64 `json:"score"`
	Level           Level   `json:"level"`
	MonthlyCount    int     `json:"monthlyCount"`
	OutliersRemoved int     `json:"outliersRemoved"`
	Quality         float64 `json:"quality"`
}

// FinalScores holds the aggregated overall and per-dimension scores.
type FinalScores struct {
	OverallScore float64                             `json:"overallScore"`
	OverallLevel Level                               `json:"overallLevel"`
	Dimensions   map[DimensionID]FinalDimensionScore `json:"dimensions"`
}

// TimeRange describes which months were considered.
type TimeRange struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	TotalMonths     int    `json:"totalMonths"`
	EvaluatedMonths int    `json:"evaluatedMonths"`
	ValidMonths     int    `json:"validMonths"`
}

// Report is the deterministic natural-language summary of an evaluation.
type Report struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// EvaluationResult is the complete output of evaluating one repository.
// A failed evaluation carries only Error and serializes as {"error": "..."}.
type EvaluationResult struct {
	RepoKey       string                `json:"repoKey,omitempty"`
	TimeRange     *TimeRange            `json:"timeRange,omitempty"`
	MonthlyScores []MonthlyOverallScore `json:"monthlyScores,omitempty"`
	SkippedMonths []SkippedMonth        `json:"skippedMonths,omitempty"`
	FinalScores   *FinalScores          `json:"finalScores,omitempty"`
	Report        *Report               `json:"report,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// Failed reports whether the evaluation produced an error result.
func (r *EvaluationResult) Failed() bool {
	return r == nil || r.Error != ""
}

func errorResult(msg string) *EvaluationResult {
	return &EvaluationResult{Error: msg}
}
