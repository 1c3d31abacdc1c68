package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chaoscope/chaoscope/pkg/config"
	"github.com/chaoscope/chaoscope/pkg/health"
	"github.com/chaoscope/chaoscope/pkg/series"
	"github.com/chaoscope/chaoscope/pkg/surface"
)

func newScoreCmd() *cobra.Command {
	var opts scoreOpts

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate a repository's metric series",
		Long: `Loads a metric series file ({"<metric>": {"raw": {"YYYY-MM": value}}}),
runs the health evaluation, renders the result and saves it to the local
result cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window") {
				cfg.Evaluation.WindowMonths = opts.window
			}
			if cmd.Flags().Changed("workers") {
				cfg.Evaluation.Workers = opts.workers
			}
			return runScore(cmd.Context(), cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Path to metric series JSON (required)")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "Repository name, e.g. owner/repo (default: input file name)")
	cmd.Flags().StringVar(&opts.outputFmt, "output", "text", "Output format: text, json or markdown")
	cmd.Flags().IntVar(&opts.window, "window", health.DefaultWindowMonths, "Number of trailing months to evaluate (0 = all)")
	cmd.Flags().IntVar(&opts.workers, "workers", health.DefaultWorkers, "Months scored concurrently")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not save the result to the result cache")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

type scoreOpts struct {
	input     string
	repo      string
	outputFmt string
	window    int
	workers   int
	noSave    bool
}

func runScore(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts scoreOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	renderer, err := surface.ForFormat(opts.outputFmt)
	if err != nil {
		return err
	}

	set, err := series.Load(opts.input)
	if err != nil {
		return fmt.Errorf("loading series: %w", err)
	}
	repo := firstNonEmpty(opts.repo, strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input)))

	log := newLogger(cfg, cmd.ErrOrStderr())
	evalOpts := append(cfg.EvaluatorOptions(), health.WithLogger(log))
	result := health.NewEvaluator(evalOpts...).Evaluate(ctx, repo, set)

	if !opts.noSave && !result.Failed() {
		if path, err := saveResult(repo, result); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to save result: %v\n", err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Result saved: %s\n", path)
		}
	}

	if err := renderer.Render(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	if result.Failed() {
		return fmt.Errorf("evaluation failed: %s", result.Error)
	}
	return nil
}

// savedResult wraps a result with metadata for the history command.
type savedResult struct {
	*health.EvaluationResult
	ID          string `json:"id"`
	EvaluatedAt string `json:"evaluatedAt"`
}

// saveResult persists a result to the repository's result cache directory.
func saveResult(repo string, result *health.EvaluationResult) (string, error) {
	dir := config.ResultDir(repo)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating result dir: %w", err)
	}

	now := time.Now().UTC()
	wrapped := savedResult{
		EvaluationResult: result,
		ID:               uuid.NewString(),
		EvaluatedAt:      now.Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(wrapped, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}

	path := filepath.Join(dir, now.Format("20060102T150405Z")+"_"+wrapped.ID[:8]+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result: %w", err)
	}
	return path, nil
}

// loadResult reads a saved result, or a bare EvaluationResult document.
func loadResult(path string) (*savedResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	sr := &savedResult{EvaluationResult: &health.EvaluationResult{}}
	if err := json.Unmarshal(data, sr); err != nil {
		return nil, fmt.Errorf("parsing result %s: %w", path, err)
	}
	if sr.FinalScores == nil && sr.Error == "" {
		return nil, fmt.Errorf("%s is not an evaluation result", path)
	}
	return sr, nil
}
