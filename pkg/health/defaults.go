package health

// NamespacePrefix is prepended to every catalog metric key.
const NamespacePrefix = "opendigger_"

// Default metric parameters used for keys the catalog does not know.
const (
	DefaultWeight        = 1.0
	DefaultIQRMultiplier = 1.5
	DefaultPercentileRef = 75.0
)

// DefaultConfig returns the configuration used for an unknown metric key.
func DefaultConfig(key string) MetricConfig {
	return MetricConfig{
		Key:            key,
		Type:           MetricCount,
		Weight:         DefaultWeight,
		HigherIsBetter: true,
		IQRMultiplier:  DefaultIQRMultiplier,
		PercentileRef:  DefaultPercentileRef,
	}
}

func pct(key string, t MetricType, weight, iqr float64) MetricConfig {
	return MetricConfig{
		Key:            NamespacePrefix + key,
		Type:           t,
		Weight:         weight,
		HigherIsBetter: true,
		IQRMultiplier:  iqr,
		UsePercentile:  true,
		PercentileRef:  DefaultPercentileRef,
	}
}

func baseline(key string, t MetricType, weight, iqr, base float64, higherIsBetter bool) MetricConfig {
	return MetricConfig{
		Key:            NamespacePrefix + key,
		Type:           t,
		Weight:         weight,
		HigherIsBetter: higherIsBetter,
		IQRMultiplier:  iqr,
		Baseline:       base,
		PercentileRef:  DefaultPercentileRef,
	}
}

func logScaled(key string, t MetricType, weight, iqr float64) MetricConfig {
	return MetricConfig{
		Key:            NamespacePrefix + key,
		Type:           t,
		Weight:         weight,
		HigherIsBetter: true,
		IQRMultiplier:  iqr,
		PercentileRef:  DefaultPercentileRef,
		LogScale:       true,
	}
}

// defaultMetrics is the built-in catalog in dimension order.
func defaultMetrics() []MetricConfig {
	return []MetricConfig{
		// activity
		pct("activity", MetricIndex, 1.5, 2.0),
		pct("openrank", MetricIndex, 1.5, 2.0),
		logScaled("code_change_lines_sum", MetricCount, 0.8, 3.0),
		pct("change_requests", MetricCount, 1.0, 1.5),

		// contributors
		pct("participants", MetricCount, 1.2, 1.5),
		baseline("new_contributors", MetricGrowth, 1.0, 2.0, 2, true),
		baseline("bus_factor", MetricFactor, 1.0, 1.5, 3, true),

		// responsiveness
		baseline("issue_response_time", MetricTime, 1.0, 2.0, 3, false),
		baseline("change_request_response_time", MetricTime, 1.0, 2.0, 3, false),
		baseline("issue_resolution_duration", MetricTime, 0.8, 2.0, 14, false),

		// quality
		pct("change_requests_accepted", MetricCount, 1.0, 1.5),
		pct("change_requests_reviews", MetricCount, 1.0, 1.5),
		pct("issues_closed", MetricCount, 0.8, 1.5),

		// risk
		baseline("inactive_contributors", MetricCount, 0.8, 1.5, 5, false),
		baseline("issue_age", MetricTime, 0.8, 2.0, 30, false),

		// community interest
		pct("stars", MetricGrowth, 1.2, 2.0),
		pct("technical_fork", MetricCount, 1.0, 2.0),
		logScaled("attention", MetricIndex, 0.8, 2.0),
	}
}
