package health

import (
	"strings"
	"testing"
)

func monthlySeries(overall ...float64) []MonthlyOverallScore {
	out := make([]MonthlyOverallScore, len(overall))
	for i, v := range overall {
		out[i] = MonthlyOverallScore{
			Month:        "2024-01",
			OverallScore: v,
			Dimensions:   map[DimensionID]MonthlyDimensionScore{},
		}
	}
	return out
}

func finalWith(overall float64, dims map[DimensionID]float64) FinalScores {
	f := FinalScores{
		OverallScore: overall,
		OverallLevel: LevelFromScore(overall),
		Dimensions:   make(map[DimensionID]FinalDimensionScore),
	}
	for id, s := range dims {
		f.Dimensions[id] = FinalDimensionScore{Score: s, Level: LevelFromScore(s), MonthlyCount: 12, Quality: 1}
	}
	return f
}

func TestAnalyzeTrend(t *testing.T) {
	tests := []struct {
		name     string
		overall  []float64
		want     TrendDirection
		volatile bool
	}{
		{"empty", nil, TrendStable, false},
		{"single", []float64{50}, TrendStable, false},
		{"rising", []float64{50, 52, 54, 56, 58, 60, 62, 64, 66, 68, 70, 72}, TrendUp, false},
		{"falling", []float64{80, 78, 76, 74, 72, 70, 68, 66}, TrendDown, false},
		{"flat", []float64{60, 61, 60, 61, 60, 61}, TrendStable, false},
		{"volatile", []float64{20, 90, 55, 55, 90, 20}, TrendStable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeTrend(tt.overall)
			if got.direction != tt.want {
				t.Errorf("direction = %q, want %q", got.direction, tt.want)
			}
			if got.volatile != tt.volatile {
				t.Errorf("volatile = %v, want %v", got.volatile, tt.volatile)
			}
		})
	}
}

func TestTrendPhrase(t *testing.T) {
	tests := []struct {
		delta float64
		want  string
	}{
		{1, "held stable"},
		{-2.9, "held stable"},
		{5, "rose slightly (+5.0 points)"},
		{-10, "fell notably (-10.0 points)"},
		{20, "rose significantly (+20.0 points)"},
	}
	for _, tt := range tests {
		if got := trendPhrase(tt.delta); got != tt.want {
			t.Errorf("trendPhrase(%v) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestGenerateReportWeakDimensions(t *testing.T) {
	final := finalWith(38, map[DimensionID]float64{
		DimActivity:       45,
		DimResponsiveness: 25,
		DimContributors:   72,
	})
	report := GenerateReport(final, monthlySeries(40, 39, 38, 37, 38, 36))

	if !strings.Contains(report.Summary, "Overall health score 38.0") {
		t.Errorf("summary missing score: %q", report.Summary)
	}
	if !strings.Contains(report.Summary, "Community health is poor") {
		t.Errorf("summary missing verdict: %q", report.Summary)
	}
	if len(report.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	// Weakest dimension first, and severe wording below 30.
	if report.Recommendations[0] != remediations[DimResponsiveness].severe {
		t.Errorf("first recommendation = %q, want severe responsiveness remediation", report.Recommendations[0])
	}
	if report.Recommendations[1] != remediations[DimActivity].normal {
		t.Errorf("second recommendation = %q, want activity remediation", report.Recommendations[1])
	}
	var cross bool
	for _, r := range report.Recommendations {
		if r == crossRules[0].message {
			cross = true
		}
	}
	if !cross {
		t.Error("expected low activity + low responsiveness cross-dimension recommendation")
	}
}

func TestGenerateReportCapsAndDedupes(t *testing.T) {
	dims := make(map[DimensionID]float64)
	for _, id := range DimensionOrder {
		dims[id] = 20
	}
	final := finalWith(20, dims)
	for id, d := range final.Dimensions {
		d.Quality = 0.4
		final.Dimensions[id] = d
	}
	report := GenerateReport(final, monthlySeries(20, 20, 20, 20))

	if len(report.Recommendations) != maxRecommendations {
		t.Errorf("got %d recommendations, want %d", len(report.Recommendations), maxRecommendations)
	}
	seen := make(map[string]bool)
	for _, r := range report.Recommendations {
		if seen[r] {
			t.Errorf("duplicate recommendation %q", r)
		}
		seen[r] = true
	}
}

func TestGenerateReportHealthy(t *testing.T) {
	dims := make(map[DimensionID]float64)
	for _, id := range DimensionOrder {
		dims[id] = 85
	}
	report := GenerateReport(finalWith(85, dims), monthlySeries(84, 85, 85, 86, 85, 85))

	if !strings.Contains(report.Summary, "excellent and stable") {
		t.Errorf("summary = %q", report.Summary)
	}
	if len(report.Recommendations) != 1 {
		t.Errorf("got %d recommendations, want the single all-clear", len(report.Recommendations))
	}
}

func TestGenerateReportCrossRules(t *testing.T) {
	final := finalWith(60, map[DimensionID]float64{
		DimCommunityInterest: 80,
		DimContributors:      45,
		DimActivity:          75,
		DimQuality:           40,
	})
	report := GenerateReport(final, monthlySeries(60, 60, 60))

	want := []string{crossRules[2].message, crossRules[3].message}
	for _, w := range want {
		found := false
		for _, r := range report.Recommendations {
			if r == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing recommendation %q", w)
		}
	}
}

func TestGenerateReportDimensionDecline(t *testing.T) {
	monthly := make([]MonthlyOverallScore, 6)
	for i, s := range []float64{80, 80, 80, 60, 60, 60} {
		monthly[i] = MonthlyOverallScore{
			OverallScore: 70,
			Dimensions:   map[DimensionID]MonthlyDimensionScore{DimRisk: {Score: s, MetricsCount: 2, Quality: 1}},
		}
	}
	report := GenerateReport(finalWith(70, map[DimensionID]float64{DimRisk: 70}), monthly)

	found := false
	for _, r := range report.Recommendations {
		if strings.HasPrefix(r, "Risk has dropped 20.0 points") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing decline recommendation in %v", report.Recommendations)
	}
}
