package series

// Merge overlays update onto base and returns a new set. Months present in
// update (including explicit nulls) replace the base value; everything else
// is carried over. Neither input is modified.
func Merge(base, update Set) Set {
	out := make(Set, len(base)+len(update))
	for key, raw := range base {
		cp := make(RawSeries, len(raw))
		for m, v := range raw {
			cp[m] = v
		}
		out[key] = cp
	}
	for key, raw := range update {
		dst, ok := out[key]
		if !ok {
			dst = make(RawSeries, len(raw))
			out[key] = dst
		}
		for m, v := range raw {
			dst[m] = v
		}
	}
	return out
}

// MergeStats summarises what Merge changed.
type MergeStats struct {
	AddedMetrics  int `json:"added_metrics"`
	UpdatedMonths int `json:"updated_months"`
}

// DiffStats computes what overlaying update onto base would change.
func DiffStats(base, update Set) MergeStats {
	var stats MergeStats
	for key, raw := range update {
		existing, ok := base[key]
		if !ok {
			stats.AddedMetrics++
		}
		for m, v := range raw {
			old, had := existing[m]
			if !had || !sameValue(old, v) {
				stats.UpdatedMonths++
			}
		}
	}
	return stats
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
