package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chaoscope/chaoscope/pkg/health"
)

func newCatalogCmd() *cobra.Command {
	var outputFmt string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the scored metrics and dimensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog := cfg.Catalog()
			switch outputFmt {
			case "json":
				return writeCatalogJSON(cmd.OutOrStdout(), catalog)
			case "text", "":
				return writeCatalogText(cmd.OutOrStdout(), catalog)
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", outputFmt)
			}
		},
	}

	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	return cmd
}

func writeCatalogJSON(w io.Writer, c *health.Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metrics    []health.MetricConfig `json:"metrics"`
		Dimensions []health.Dimension    `json:"dimensions"`
	}{
		Metrics:    c.Metrics(),
		Dimensions: c.Dimensions(),
	})
}

func writeCatalogText(w io.Writer, c *health.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range c.Dimensions() {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
		for _, m := range d.Metrics {
			cfg := c.ConfigFor(m.Key)
			fmt.Fprintf(tw, "  %s\t%s\tweight %.2f\t%s\t%s\n",
				strings.TrimPrefix(m.Key, health.NamespacePrefix), cfg.Type, m.Weight, polarity(cfg), strategy(cfg))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func polarity(cfg health.MetricConfig) string {
	if cfg.HigherIsBetter {
		return "higher is better"
	}
	return "lower is better"
}

func strategy(cfg health.MetricConfig) string {
	switch {
	case cfg.UsePercentile:
		return fmt.Sprintf("p%.0f reference", cfg.PercentileRef)
	case cfg.Baseline > 0:
		return fmt.Sprintf("baseline %g", cfg.Baseline)
	case cfg.LogScale:
		return "log scale"
	default:
		return "linear"
	}
}
