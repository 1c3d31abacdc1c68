package health

import "math"

// Quality assessment thresholds.
const (
	// shortHistoryQuality is assigned when fewer than three values exist.
	shortHistoryQuality = 0.3
	minQuality          = 0.1
	maxOutlierPenalty   = 0.4
	zeroRatioThreshold  = 0.3
	maxZeroPenalty      = 0.3
)

// IndexedPercentile returns sorted[floor(n*p)], clamped to the last index.
// Used for quality cleaning; aggregation uses InterpolatedPercentile.
func IndexedPercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func zeroRatio(valid []float64) float64 {
	if len(valid) == 0 {
		return 0
	}
	zeros := 0
	for _, v := range valid {
		if v == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(valid))
}

// AssessQuality cleans a metric's history and scores how trustworthy it is.
// values must not include absent months. Values that are NaN, infinite or
// negative are dropped before any statistic is computed.
func AssessQuality(values []float64, cfg MetricConfig) QualityAssessment {
	valid := validValues(values)
	if len(values) < 3 {
		return QualityAssessment{
			CleanValues: valid,
			Quality:     shortHistoryQuality,
			ZeroRatio:   zeroRatio(valid),
		}
	}
	if len(valid) == 0 {
		return QualityAssessment{CleanValues: valid}
	}

	zr := zeroRatio(valid)
	if len(valid) < 4 {
		return QualityAssessment{
			CleanValues: valid,
			Quality:     round2(math.Max(minQuality, 1-0.5*zr)),
			ZeroRatio:   zr,
		}
	}

	sorted := sortedCopy(valid)
	q1 := IndexedPercentile(sorted, 0.25)
	q3 := IndexedPercentile(sorted, 0.75)
	iqr := q3 - q1

	clean := valid
	outliers := 0
	if iqr > 0 {
		m := cfg.IQRMultiplier
		if m <= 0 {
			m = DefaultIQRMultiplier
		}
		lo, hi := q1-m*iqr, q3+m*iqr
		kept := make([]float64, 0, len(valid))
		for _, v := range valid {
			if v < lo || v > hi {
				outliers++
				continue
			}
			kept = append(kept, v)
		}
		// Cleaning that would discard most of the data is not trusted.
		if float64(outliers) > 0.5*float64(len(valid)) {
			outliers = 0
		} else {
			clean = kept
		}
	}

	q := 1 - math.Min(maxOutlierPenalty, float64(outliers)/float64(len(valid)))
	if zr > zeroRatioThreshold {
		q -= math.Min(maxZeroPenalty, (zr-zeroRatioThreshold)*0.5)
	}
	q = math.Max(minQuality, q)

	return QualityAssessment{
		CleanValues:  clean,
		Quality:      round2(q),
		OutlierCount: outliers,
		ZeroRatio:    zr,
	}
}
