package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// MarkdownRenderer produces a Markdown report suitable for issues, pull
// request comments or README badges.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, result *health.EvaluationResult) error {
	_, err := io.WriteString(w, BuildMarkdown(result))
	return err
}

// BuildMarkdown renders the result as a Markdown document.
func BuildMarkdown(result *health.EvaluationResult) string {
	var sb strings.Builder

	if result.Failed() {
		sb.WriteString("## Repository health: evaluation failed\n\n")
		sb.WriteString(fmt.Sprintf("> %s\n", result.Error))
		return sb.String()
	}

	final := result.FinalScores
	name := result.RepoKey
	if name == "" {
		name = "Repository"
	}
	sb.WriteString(fmt.Sprintf("## %s health: %.1f %s %s\n\n", name, final.OverallScore, levelIcon(final.OverallScore), final.OverallLevel))

	if tr := result.TimeRange; tr != nil {
		sb.WriteString(fmt.Sprintf("_Evaluated %s to %s (%d of %d months valid)_\n\n", tr.Start, tr.End, tr.ValidMonths, tr.EvaluatedMonths))
	}

	sb.WriteString("### Dimensions\n\n")
	sb.WriteString("| Dimension | Score | Level | Months | Outliers | Data quality |\n")
	sb.WriteString("|-----------|-------|-------|--------|----------|--------------|\n")
	for _, id := range orderedDimensions(final.Dimensions) {
		d := final.Dimensions[id]
		sb.WriteString(fmt.Sprintf("| %s | %.1f | %s %s | %d | %d | %.2f |\n",
			health.DimensionName(id), d.Score, levelIcon(d.Score), d.Level, d.MonthlyCount, d.OutliersRemoved, d.Quality))
	}
	sb.WriteString("\n")

	if rep := result.Report; rep != nil {
		sb.WriteString("### Summary\n\n")
		sb.WriteString(rep.Summary + "\n\n")

		if len(rep.Recommendations) > 0 {
			sb.WriteString("### Recommendations\n\n")
			for _, rec := range rep.Recommendations {
				sb.WriteString(fmt.Sprintf("- %s\n", rec))
			}
			sb.WriteString("\n")
		}
	}

	if len(result.SkippedMonths) > 0 {
		sb.WriteString("<details><summary>Skipped months</summary>\n\n")
		for _, s := range result.SkippedMonths {
			sb.WriteString(fmt.Sprintf("- %s: `%s`\n", s.Month, s.Reason))
		}
		sb.WriteString("\n</details>\n")
	}

	return sb.String()
}

func levelIcon(score float64) string {
	switch {
	case score >= 80:
		return ":green_circle:"
	case score >= 60:
		return ":yellow_circle:"
	case score >= 40:
		return ":orange_circle:"
	default:
		return ":red_circle:"
	}
}
