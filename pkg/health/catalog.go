package health

import (
	"strings"

	"github.com/chaoscope/chaoscope/pkg/series"
)

// Overrides adjusts the built-in catalog. Keys may be given with or without
// the namespace prefix; unknown keys are ignored.
type Overrides struct {
	Weights          map[string]float64
	Baselines        map[string]float64
	DimensionWeights map[DimensionID]map[string]float64
}

// Catalog is the immutable registry of metric configurations and their
// dimension membership. Safe for concurrent use.
type Catalog struct {
	metrics     map[string]MetricConfig
	keys        []string
	dimensions  []Dimension
	dimensionOf map[string]DimensionID
}

var defaultCatalog = NewCatalog(Overrides{})

// DefaultCatalog returns the shared built-in catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// NewCatalog builds a catalog from the built-in metrics with overrides applied.
func NewCatalog(o Overrides) *Catalog {
	c := &Catalog{
		metrics:     make(map[string]MetricConfig),
		dimensionOf: make(map[string]DimensionID),
	}
	for _, cfg := range defaultMetrics() {
		c.metrics[cfg.Key] = cfg
		c.keys = append(c.keys, cfg.Key)
	}

	for key, w := range o.Weights {
		k := c.canonicalKey(key)
		if cfg, ok := c.metrics[k]; ok {
			cfg.Weight = w
			c.metrics[k] = cfg
		}
	}
	for key, b := range o.Baselines {
		k := c.canonicalKey(key)
		if cfg, ok := c.metrics[k]; ok {
			cfg.Baseline = b
			c.metrics[k] = cfg
		}
	}

	c.dimensions = defaultDimensions()
	for i := range c.dimensions {
		d := &c.dimensions[i]
		local := o.DimensionWeights[d.ID]
		for j := range d.Metrics {
			m := &d.Metrics[j]
			for key, w := range local {
				if c.canonicalKey(key) == m.Key {
					m.Weight = w
				}
			}
			c.dimensionOf[m.Key] = d.ID
		}
	}
	return c
}

// canonicalKey maps a key to its catalog form, adding the namespace prefix
// when only the prefixed form is known.
func (c *Catalog) canonicalKey(key string) string {
	if _, ok := c.metrics[key]; ok {
		return key
	}
	if !strings.HasPrefix(key, NamespacePrefix) {
		if _, ok := c.metrics[NamespacePrefix+key]; ok {
			return NamespacePrefix + key
		}
	}
	return key
}

// ConfigFor returns the configuration for a metric key. It never fails:
// the exact key is tried first, then the prefixed key, then DefaultConfig.
func (c *Catalog) ConfigFor(key string) MetricConfig {
	if cfg, ok := c.metrics[c.canonicalKey(key)]; ok {
		return cfg
	}
	return DefaultConfig(key)
}

// Known reports whether key (prefixed or not) is a catalog metric.
func (c *Catalog) Known(key string) bool {
	_, ok := c.metrics[c.canonicalKey(key)]
	return ok
}

// Keys returns the catalog metric keys in catalog order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of catalog metrics.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// Metrics returns every catalog configuration in catalog order.
func (c *Catalog) Metrics() []MetricConfig {
	out := make([]MetricConfig, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.metrics[k])
	}
	return out
}

// Canonicalize returns a copy of set whose known keys carry the namespace
// prefix. When both forms of a key are present the prefixed one wins.
func (c *Catalog) Canonicalize(set series.Set) series.Set {
	out := make(series.Set, len(set))
	for key, raw := range set {
		k := c.canonicalKey(key)
		if _, exists := out[k]; exists && k != key {
			continue
		}
		out[k] = raw
	}
	return out
}
