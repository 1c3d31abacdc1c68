package health

import "github.com/chaoscope/chaoscope/pkg/series"

func dm(key string, weight float64) DimensionMetric {
	return DimensionMetric{Key: NamespacePrefix + key, Weight: weight}
}

// defaultDimensions returns the six fixed dimensions in DimensionOrder.
func defaultDimensions() []Dimension {
	return []Dimension{
		{
			ID:          DimActivity,
			Name:        "Activity",
			Description: "How much development work happens in the repository.",
			Metrics: []DimensionMetric{
				dm("activity", 0.35),
				dm("openrank", 0.25),
				dm("code_change_lines_sum", 0.20),
				dm("change_requests", 0.20),
			},
		},
		{
			ID:          DimContributors,
			Name:        "Contributors",
			Description: "Size and resilience of the contributor base.",
			Metrics: []DimensionMetric{
				dm("participants", 0.40),
				dm("new_contributors", 0.30),
				dm("bus_factor", 0.30),
			},
		},
		{
			ID:          DimResponsiveness,
			Name:        "Responsiveness",
			Description: "How quickly issues and pull requests get attention.",
			Metrics: []DimensionMetric{
				dm("issue_response_time", 0.40),
				dm("change_request_response_time", 0.35),
				dm("issue_resolution_duration", 0.25),
			},
		},
		{
			ID:          DimQuality,
			Name:        "Quality",
			Description: "Review and acceptance throughput of contributions.",
			Metrics: []DimensionMetric{
				dm("change_requests_accepted", 0.40),
				dm("change_requests_reviews", 0.35),
				dm("issues_closed", 0.25),
			},
		},
		{
			ID:          DimRisk,
			Name:        "Risk",
			Description: "Sustainability risk from contributor churn and ageing issues.",
			Metrics: []DimensionMetric{
				dm("inactive_contributors", 0.50),
				dm("issue_age", 0.50),
			},
		},
		{
			ID:          DimCommunityInterest,
			Name:        "Community Interest",
			Description: "Attention the project receives from the wider community.",
			Metrics: []DimensionMetric{
				dm("stars", 0.45),
				dm("technical_fork", 0.30),
				dm("attention", 0.25),
			},
		},
	}
}

var dimensionNames = func() map[DimensionID]string {
	m := make(map[DimensionID]string)
	for _, d := range defaultDimensions() {
		m[d.ID] = d.Name
	}
	return m
}()

// DimensionName returns the display name of a dimension, or its ID when unknown.
func DimensionName(id DimensionID) string {
	if name, ok := dimensionNames[id]; ok {
		return name
	}
	return string(id)
}

// Dimensions returns a copy of the catalog's dimensions in fixed order.
func (c *Catalog) Dimensions() []Dimension {
	out := make([]Dimension, len(c.dimensions))
	for i, d := range c.dimensions {
		d.Metrics = append([]DimensionMetric(nil), d.Metrics...)
		out[i] = d
	}
	return out
}

// Dimension looks up a dimension by ID.
func (c *Catalog) Dimension(id DimensionID) (Dimension, bool) {
	for _, d := range c.dimensions {
		if d.ID == id {
			d.Metrics = append([]DimensionMetric(nil), d.Metrics...)
			return d, true
		}
	}
	return Dimension{}, false
}

// DimensionOf returns the dimension a metric key belongs to. Unprefixed keys
// are resolved against the namespace prefix.
func (c *Catalog) DimensionOf(key string) (DimensionID, bool) {
	id, ok := c.dimensionOf[c.canonicalKey(key)]
	return id, ok
}

// MapSeries projects an input set onto the dimensions. Keys outside the
// catalog are dropped; dimensions with no matching series are omitted.
// The returned sets share RawSeries values with the input.
func (c *Catalog) MapSeries(set series.Set) map[DimensionID]series.Set {
	out := make(map[DimensionID]series.Set)
	for key, raw := range set {
		id, ok := c.DimensionOf(key)
		if !ok {
			continue
		}
		if out[id] == nil {
			out[id] = make(series.Set)
		}
		out[id][c.canonicalKey(key)] = raw
	}
	return out
}
