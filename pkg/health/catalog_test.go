package health_test

import (
	"testing"

	"github.com/chaoscope/chaoscope/pkg/health"
	"github.com/chaoscope/chaoscope/pkg/series"
)

func TestDefaultCatalog(t *testing.T) {
	c := health.DefaultCatalog()
	if c.Len() != 18 {
		t.Fatalf("Len() = %d, want 18", c.Len())
	}
	for _, key := range c.Keys() {
		if _, ok := c.DimensionOf(key); !ok {
			t.Errorf("metric %s belongs to no dimension", key)
		}
	}
}

func TestConfigFor(t *testing.T) {
	c := health.DefaultCatalog()

	tests := []struct {
		key      string
		wantKey  string
		wantType health.MetricType
		wantBase float64
	}{
		{"opendigger_issue_age", "opendigger_issue_age", health.MetricTime, 30},
		{"issue_age", "opendigger_issue_age", health.MetricTime, 30},
		{"bus_factor", "opendigger_bus_factor", health.MetricFactor, 3},
		{"unknown_metric", "unknown_metric", health.MetricCount, 0},
	}
	for _, tt := range tests {
		cfg := c.ConfigFor(tt.key)
		if cfg.Key != tt.wantKey {
			t.Errorf("ConfigFor(%q).Key = %q, want %q", tt.key, cfg.Key, tt.wantKey)
		}
		if cfg.Type != tt.wantType {
			t.Errorf("ConfigFor(%q).Type = %q, want %q", tt.key, cfg.Type, tt.wantType)
		}
		if cfg.Baseline != tt.wantBase {
			t.Errorf("ConfigFor(%q).Baseline = %v, want %v", tt.key, cfg.Baseline, tt.wantBase)
		}
	}

	def := c.ConfigFor("unknown_metric")
	if def.Weight != 1.0 || !def.HigherIsBetter || def.IQRMultiplier != 1.5 || def.PercentileRef != 75 {
		t.Errorf("default config = %+v", def)
	}
}

func TestDimensionsOrder(t *testing.T) {
	dims := health.DefaultCatalog().Dimensions()
	if len(dims) != len(health.DimensionOrder) {
		t.Fatalf("expected %d dimensions, got %d", len(health.DimensionOrder), len(dims))
	}
	for i, d := range dims {
		if d.ID != health.DimensionOrder[i] {
			t.Errorf("dims[%d] = %s, want %s", i, d.ID, health.DimensionOrder[i])
		}
	}

	// Returned dimensions are copies.
	dims[0].Metrics[0].Weight = 99
	again, _ := health.DefaultCatalog().Dimension(health.DimActivity)
	if again.Metrics[0].Weight == 99 {
		t.Error("mutating Dimensions() result changed the catalog")
	}
}

func TestNewCatalogOverrides(t *testing.T) {
	c := health.NewCatalog(health.Overrides{
		Weights:   map[string]float64{"stars": 2.5, "nope": 9},
		Baselines: map[string]float64{"opendigger_issue_age": 60},
		DimensionWeights: map[health.DimensionID]map[string]float64{
			health.DimRisk: {"issue_age": 0.8},
		},
	})

	if w := c.ConfigFor("stars").Weight; w != 2.5 {
		t.Errorf("stars weight = %v, want 2.5", w)
	}
	if b := c.ConfigFor("issue_age").Baseline; b != 60 {
		t.Errorf("issue_age baseline = %v, want 60", b)
	}
	risk, _ := c.Dimension(health.DimRisk)
	for _, m := range risk.Metrics {
		if m.Key == "opendigger_issue_age" && m.Weight != 0.8 {
			t.Errorf("issue_age local weight = %v, want 0.8", m.Weight)
		}
	}
	if c.Known("nope") {
		t.Error("override must not add unknown metrics")
	}

	// The shared default catalog is untouched.
	if w := health.DefaultCatalog().ConfigFor("stars").Weight; w != 1.2 {
		t.Errorf("default stars weight = %v, want 1.2", w)
	}
}

func TestMapSeries(t *testing.T) {
	months := monthRange("2024-01", 2)
	set := series.Set{
		"opendigger_stars":      constantSeries(months, 1),
		"technical_fork":        constantSeries(months, 1),
		"opendigger_bus_factor": constantSeries(months, 1),
		"unrelated":             constantSeries(months, 1),
	}

	mapped := health.DefaultCatalog().MapSeries(set)
	if len(mapped) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(mapped))
	}
	ci := mapped[health.DimCommunityInterest]
	if len(ci) != 2 {
		t.Errorf("community_interest has %d series, want 2", len(ci))
	}
	if _, ok := ci["opendigger_technical_fork"]; !ok {
		t.Error("unprefixed key should map to its canonical form")
	}
	if _, ok := mapped[health.DimContributors]["opendigger_bus_factor"]; !ok {
		t.Error("bus_factor missing from contributors")
	}
}

func TestLevelFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  health.Level
	}{
		{100, health.LevelExcellent},
		{80, health.LevelExcellent},
		{79.9, health.LevelGood},
		{60, health.LevelGood},
		{40, health.LevelFair},
		{20, health.LevelPoor},
		{19.9, health.LevelCritical},
		{0, health.LevelCritical},
	}
	for _, tt := range tests {
		if got := health.LevelFromScore(tt.score); got != tt.want {
			t.Errorf("LevelFromScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
