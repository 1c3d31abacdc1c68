package health_test

import (
	"path/filepath"
	"testing"

	"github.com/chaoscope/chaoscope/pkg/series"
)

func loadSeries(t *testing.T, name string) series.Set {
	t.Helper()
	set, err := series.Load(filepath.Join("..", "..", "testdata", name))
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return set
}

func monthRange(start string, n int) []string {
	t0, err := series.ParseMonth(start)
	if err != nil {
		panic(err)
	}
	months := make([]string, n)
	for i := range months {
		months[i] = t0.AddDate(0, i, 0).Format(series.MonthLayout)
	}
	return months
}

func constantSeries(months []string, v float64) series.RawSeries {
	raw := make(series.RawSeries, len(months))
	for _, m := range months {
		raw[m] = series.Float(v)
	}
	return raw
}

