package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chaoscope/chaoscope/pkg/config"
)

func newHistoryCmd() *cobra.Command {
	var (
		repo      string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved evaluations for a repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := listHistory(config.ResultDir(repo))
			if err != nil {
				return err
			}

			if outputFmt == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No saved evaluations for %s.\n", repo)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "EVALUATED\tSCORE\tLEVEL\tRANGE\tVALID MONTHS\tFILE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s..%s\t%d\t%s\n",
					e.EvaluatedAt, e.OverallScore, e.OverallLevel, e.Start, e.End, e.ValidMonths, e.File)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository name, e.g. owner/repo (required)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

type historyEntry struct {
	ID           string  `json:"id"`
	EvaluatedAt  string  `json:"evaluatedAt"`
	OverallScore float64 `json:"overallScore"`
	OverallLevel string  `json:"overallLevel"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	ValidMonths  int     `json:"validMonths"`
	File         string  `json:"file"`
}

// listHistory reads every saved result in dir, newest first. Unreadable
// files are skipped.
func listHistory(dir string) ([]historyEntry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []historyEntry{}, nil
		}
		return nil, fmt.Errorf("reading result dir: %w", err)
	}

	entries := []historyEntry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		sr, err := loadResult(path)
		if err != nil || sr.FinalScores == nil {
			continue
		}
		e := historyEntry{
			ID:           sr.ID,
			EvaluatedAt:  sr.EvaluatedAt,
			OverallScore: sr.FinalScores.OverallScore,
			OverallLevel: string(sr.FinalScores.OverallLevel),
			File:         path,
		}
		if tr := sr.TimeRange; tr != nil {
			e.Start, e.End, e.ValidMonths = tr.Start, tr.End, tr.ValidMonths
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EvaluatedAt > entries[j].EvaluatedAt
	})
	return entries, nil
}
