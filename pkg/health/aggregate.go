package health

import "math"

// Aggregation parameters.
const (
	// OutlierWeight is the weight given to months outside the IQR bounds.
	OutlierWeight = 0.3

	defaultIQRFactor  = 1.5
	activityIQRFactor = 2.0
)

// InterpolatedPercentile returns the linearly interpolated p-quantile of a
// sorted slice, matching the common "linear" definition.
func InterpolatedPercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := clamp(p, 0, 1) * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func iqrFactor(dim DimensionID) float64 {
	if dim == DimActivity {
		return activityIQRFactor
	}
	return defaultIQRFactor
}

// robustBounds returns the outlier bounds of sorted, or false when the data
// has no spread.
func robustBounds(sorted []float64, dim DimensionID) (float64, float64, bool) {
	q1 := InterpolatedPercentile(sorted, 0.25)
	q3 := InterpolatedPercentile(sorted, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return 0, 0, false
	}
	k := iqrFactor(dim)
	return q1 - k*iqr, q3 + k*iqr, true
}

// RobustAggregate combines monthly scores into one value, down-weighting
// months outside the IQR bounds. dim selects the bound width; pass "" for
// the overall score. The input order never affects the result.
func RobustAggregate(xs []float64, dim DimensionID) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := sortedCopy(xs)
	if len(sorted) < 4 {
		return mean(sorted)
	}
	lo, hi, ok := robustBounds(sorted, dim)
	if !ok {
		return mean(sorted)
	}
	var sum, weights float64
	for _, v := range sorted {
		w := 1.0
		if v < lo || v > hi {
			w = OutlierWeight
		}
		sum += v * w
		weights += w
	}
	return sum / weights
}

// CountOutliers counts the values RobustAggregate would down-weight.
func CountOutliers(xs []float64, dim DimensionID) int {
	if len(xs) < 4 {
		return 0
	}
	sorted := sortedCopy(xs)
	lo, hi, ok := robustBounds(sorted, dim)
	if !ok {
		return 0
	}
	n := 0
	for _, v := range sorted {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}
