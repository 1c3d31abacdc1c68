package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chaoscope/chaoscope/pkg/config"
	"github.com/chaoscope/chaoscope/pkg/logger"
)

// loadConfig reads --config when given, otherwise searches upward from the
// working directory. A broken discovered file falls back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return config.DefaultConfig(), nil
	}
	cfgFile := config.FindConfigFile(wd)
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load config: %v\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// newLogger logs to stderr so stdout stays clean for rendered output.
func newLogger(cfg *config.Config, errOut io.Writer) zerolog.Logger {
	lc := cfg.Logging
	if lc.Level == "" || lc.Level == "info" {
		lc.Level = "warn"
	}
	return logger.New(lc, errOut)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
