package health

import (
	"testing"

	"github.com/chaoscope/chaoscope/pkg/series"
)

func TestDamp(t *testing.T) {
	raw := series.RawSeries{
		"2023-01": series.Float(100),
		"2023-02": series.Float(100),
		"2024-01": series.Float(10),
		"2024-02": series.Float(10),
		"2024-03": series.Float(1),
		"2024-04": series.Float(30),
		"2024-06": series.Float(10),
		"2024-09": series.Float(2),
		"2024-10": nil,
		"2024-11": series.Float(8),
	}

	tests := []struct {
		name  string
		month string
		value float64
		want  float64
	}{
		{"dip lifted to window mean", "2024-03", 1, 7},
		{"spike kept", "2024-04", 30, 30},
		// 2024-04..06: only 30 and 10 are in the window.
		{"gap inside window", "2024-06", 10, 20},
		// 2024-07..09: the older values are outside the window.
		{"lone value after gap", "2024-09", 2, 2},
		{"null month ignored", "2024-11", 8, 8},
		{"first month of history", "2023-01", 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := damp(raw, tt.month, tt.value); got != tt.want {
				t.Errorf("damp(%s, %v) = %v, want %v", tt.month, tt.value, got, tt.want)
			}
		})
	}
}

func TestDampIgnoresDistantHistory(t *testing.T) {
	raw := series.RawSeries{
		"2023-01": series.Float(100),
		"2023-02": series.Float(100),
		"2024-06": series.Float(10),
	}
	if got := damp(raw, "2024-06", 10); got != 10 {
		t.Errorf("damp = %v, want 10", got)
	}
}
