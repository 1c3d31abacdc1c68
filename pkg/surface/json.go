package surface

import (
	"encoding/json"
	"io"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// JSONRenderer marshals EvaluationResult to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, result *health.EvaluationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
