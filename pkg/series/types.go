// Package series defines the monthly metric time-series model for chaoscope.
// These types are the shared vocabulary between ingestion and the health engine.
package series

import (
	"fmt"
	"sort"
	"time"
)

// MonthLayout is the layout of every month key ("YYYY-MM").
const MonthLayout = "2006-01"

// RawSeries maps a month key to an observed value. A nil value means the month
// is absent: it is excluded from all statistics and never treated as zero.
type RawSeries map[string]*float64

// Set holds the raw series of one repository, keyed by metric key.
type Set map[string]RawSeries

// ParseMonth parses a "YYYY-MM" month key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t, nil
}

// ValidMonth reports whether month is a well-formed "YYYY-MM" key.
func ValidMonth(month string) bool {
	_, err := ParseMonth(month)
	return err == nil
}

// Float returns a pointer to v, for building series literals.
func Float(v float64) *float64 { return &v }

// Value returns the value recorded for month and whether it is present.
func (s RawSeries) Value(month string) (float64, bool) {
	v, ok := s[month]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Months returns the well-formed months that carry a value, in chronological order.
func (s RawSeries) Months() []string {
	months := make([]string, 0, len(s))
	for m, v := range s {
		if v == nil || !ValidMonth(m) {
			continue
		}
		months = append(months, m)
	}
	// "YYYY-MM" sorts lexically in chronological order.
	sort.Strings(months)
	return months
}

// Values returns every present value in chronological order.
func (s RawSeries) Values() []float64 {
	months := s.Months()
	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = *s[m]
	}
	return values
}

// WindowValues returns the present values of the n calendar months ending at
// month (month-n+1 through month), oldest first. Absent months contribute nothing.
func (s RawSeries) WindowValues(month string, n int) []float64 {
	end, err := ParseMonth(month)
	if err != nil || n <= 0 {
		return nil
	}
	var values []float64
	for k := n - 1; k >= 0; k-- {
		if v, ok := s.Value(end.AddDate(0, -k, 0).Format(MonthLayout)); ok {
			values = append(values, v)
		}
	}
	return values
}

// Keys returns the metric keys of the set in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Months returns the union of months with at least one present value across
// all metrics, in chronological order.
func (s Set) Months() []string {
	seen := make(map[string]bool)
	for _, raw := range s {
		for _, m := range raw.Months() {
			seen[m] = true
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// IsEmpty reports whether the set carries no present value at all.
func (s Set) IsEmpty() bool {
	return len(s.Months()) == 0
}

// TrailingMonths returns the last n months of a chronologically sorted list.
// n <= 0 returns all months.
func TrailingMonths(months []string, n int) []string {
	if n <= 0 || len(months) <= n {
		return months
	}
	return months[len(months)-n:]
}
