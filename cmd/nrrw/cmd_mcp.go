package main

import (
	"fmt"

	"github.com/nvandessel/nrrw/internal/logging"
	"github.com/nvandessel/nrrw/internal/mcp"
	"github.com/nvandessel/nrrw/internal/store"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve simulation tools over MCP (stdio)",
		Long: `Run an MCP server on stdin/stdout exposing:

  nrrw_simulate  run independent walks and return their degree sequences
  nrrw_graph     run one walk and return its final graph as DOT or JSON
  nrrw_batches   list recorded batches (only when a results database is set)

Tool arguments are bounded by mcp.max_steps and mcp.max_count and calls are
rate limited per tool.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr only.
			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

			serverCfg := &mcp.Config{
				Name:    "nrrw",
				Version: version,
				Limits:  cfg.MCP,
				Logger:  logger,
			}
			if cfg.Output.Database != "" {
				st, err := store.Open(cfg.Output.Database)
				if err != nil {
					return err
				}
				defer st.Close()
				serverCfg.Store = st
			}

			server, err := mcp.NewServer(serverCfg)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return server.Run(ctx)
		},
	}
}
