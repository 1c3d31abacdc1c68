package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// TerminalRenderer renders EvaluationResult as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func levelColor(score float64) string {
	if noColor() {
		return ""
	}
	switch {
	case score >= 60:
		return colorGreen
	case score >= 40:
		return colorYellow
	default:
		return colorRed
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

// bar draws a 20-cell gauge for a 0-100 score.
func bar(score float64) string {
	filled := int(score/5 + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

func (r *TerminalRenderer) Render(w io.Writer, result *health.EvaluationResult) error {
	if result.Failed() {
		fmt.Fprintf(w, "%s %s\n", colored("Evaluation failed:", colorRed), result.Error)
		return nil
	}

	final := result.FinalScores
	title := "Repository health"
	if result.RepoKey != "" {
		title = fmt.Sprintf("%s: %s", result.RepoKey, title)
	}
	lc := levelColor(final.OverallScore)
	fmt.Fprintf(w, "%s\n",
		bold(fmt.Sprintf("%s %s (%s)", title,
			colored(fmt.Sprintf("%.1f", final.OverallScore), lc), final.OverallLevel)))

	if tr := result.TimeRange; tr != nil {
		fmt.Fprintf(w, "%s\n\n", dim(fmt.Sprintf("Months %s to %s: %d evaluated, %d valid, %d in input",
			tr.Start, tr.End, tr.EvaluatedMonths, tr.ValidMonths, tr.TotalMonths)))
	}

	fmt.Fprintln(w, "Dimensions:")
	for _, id := range orderedDimensions(final.Dimensions) {
		d := final.Dimensions[id]
		fmt.Fprintf(w, "  %-20s %s %5.1f  %s\n",
			health.DimensionName(id), colored(bar(d.Score), levelColor(d.Score)), d.Score, d.Level)
		if d.OutliersRemoved > 0 {
			fmt.Fprintf(w, "  %-20s %s\n", "", dim(fmt.Sprintf("%d of %d months down-weighted as outliers", d.OutliersRemoved, d.MonthlyCount)))
		}
	}
	fmt.Fprintln(w)

	if len(result.SkippedMonths) > 0 {
		fmt.Fprintln(w, "Skipped months:")
		for _, s := range result.SkippedMonths {
			fmt.Fprintf(w, "  %s %s\n", s.Month, dim(string(s.Reason)))
		}
		fmt.Fprintln(w)
	}

	if rep := result.Report; rep != nil {
		fmt.Fprintln(w, "Summary:")
		for _, line := range wrapText(rep.Summary, 76) {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)

		if len(rep.Recommendations) > 0 {
			fmt.Fprintln(w, "Recommendations:")
			for _, rec := range rep.Recommendations {
				lines := wrapText(rec, 72)
				for i, line := range lines {
					if i == 0 {
						fmt.Fprintf(w, "  • %s\n", line)
						continue
					}
					fmt.Fprintf(w, "    %s\n", dim(line))
				}
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
