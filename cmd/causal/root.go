package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"causaldiscovery/infrastructure/config"
	"causaldiscovery/infrastructure/di"

	"github.com/spf13/cobra"
)

var (
	configFile   string
	outputFormat string
	offline      bool
)

var rootCmd = &cobra.Command{
	Use:           "causal",
	Short:         "Discover causal mechanisms linking exposures to biomarkers",
	Long:          "Query the causal path discovery engine from the command line: ground entity names, discover causal graphs and seed the fixture table.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "human", "Output format (json, human)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Disable live INDRA search")
}

// newContainer loads configuration the same way the server does and applies
// the command line overrides
func newContainer(ctx context.Context) (*di.Container, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if offline {
		cfg.Indra.Disabled = true
	}
	// keep stdout clean for results
	if cfg.LogLevel == "info" || cfg.LogLevel == "debug" {
		cfg.LogLevel = "warn"
	}
	return di.InitializeContainer(ctx, cfg)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
