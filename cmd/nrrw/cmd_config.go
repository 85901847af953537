package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration nrrw would run with, after applying the config
file (~/.nrrw/config.yaml or --config) and NRRW_* environment variables.

Environment variables:
  NRRW_OUTPUT_DIR, NRRW_PARALLEL, NRRW_GRAPHVIZ, NRRW_GRAPH_FORMAT, NRRW_DB,
  NRRW_METRICS_FILE, NRRW_LOG_LEVEL, NRRW_MCP_MAX_STEPS, NRRW_MCP_MAX_COUNT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
