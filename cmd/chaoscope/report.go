package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaoscope/chaoscope/pkg/surface"
)

func newReportCmd() *cobra.Command {
	var outputFmt string

	cmd := &cobra.Command{
		Use:   "report <result.json>",
		Short: "Re-render a saved evaluation result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := surface.ForFormat(outputFmt)
			if err != nil {
				return err
			}
			sr, err := loadResult(args[0])
			if err != nil {
				return err
			}
			if err := renderer.Render(cmd.OutOrStdout(), sr.EvaluationResult); err != nil {
				return fmt.Errorf("rendering: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, json or markdown")
	return cmd
}
