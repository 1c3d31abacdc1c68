// Package surface defines output rendering for chaoscope evaluation results.
// Implementations handle different output targets: terminal, Markdown, JSON.
package surface

import (
	"fmt"
	"io"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// Renderer produces formatted output from an EvaluationResult.
type Renderer interface {
	// Render writes the formatted evaluation result to the writer.
	Render(w io.Writer, result *health.EvaluationResult) error
}

// ForFormat returns the renderer for an output format name.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or markdown)", format)
	}
}

// orderedDimensions returns the dimensions present in scores in display order.
func orderedDimensions(scores map[health.DimensionID]health.FinalDimensionScore) []health.DimensionID {
	var ids []health.DimensionID
	for _, id := range health.DimensionOrder {
		if _, ok := scores[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
