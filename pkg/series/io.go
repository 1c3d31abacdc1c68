package series

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// metricPayload is the wire shape of one metric: {"raw": {"YYYY-MM": number|null}}.
type metricPayload struct {
	Raw RawSeries `json:"raw"`
}

// MarshalJSON encodes the set in the {"key": {"raw": {...}}} wire shape.
func (s Set) MarshalJSON() ([]byte, error) {
	wire := make(map[string]metricPayload, len(s))
	for k, raw := range s {
		if raw == nil {
			raw = RawSeries{}
		}
		wire[k] = metricPayload{Raw: raw}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the {"key": {"raw": {...}}} wire shape. Malformed month
// keys are dropped; a wrongly shaped document is an error.
func (s *Set) UnmarshalJSON(data []byte) error {
	var wire map[string]metricPayload
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(Set, len(wire))
	for k, p := range wire {
		raw := make(RawSeries, len(p.Raw))
		for m, v := range p.Raw {
			if !ValidMonth(m) {
				continue
			}
			raw[m] = v
		}
		out[k] = raw
	}
	*s = out
	return nil
}

// Decode parses a series set from JSON.
func Decode(data []byte) (Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling series: %w", err)
	}
	if s == nil {
		s = Set{}
	}
	return s, nil
}

// Load reads a series set from disk.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading series: %w", err)
	}
	return Decode(data)
}

// Save writes a series set to disk as JSON.
func Save(path string, s Set) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for series: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling series: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing series: %w", err)
	}

	return nil
}
