// Package main provides the chaoscope CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chaoscope",
		Short: "Community health scoring for open-source repositories",
		Long: `Chaoscope turns monthly repository metrics into CHAOSS-style health
scores across six dimensions, with outlier-robust aggregation and a
rule-based report.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: search for .chaoscope/config.yaml)")

	rootCmd.AddCommand(
		newScoreCmd(),
		newReportCmd(),
		newCatalogCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
