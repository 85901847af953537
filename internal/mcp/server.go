// Package mcp provides an MCP (Model Context Protocol) server for nrrw.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/nrrw/internal/config"
	"github.com/nvandessel/nrrw/internal/logging"
	"github.com/nvandessel/nrrw/internal/ratelimit"
	"github.com/nvandessel/nrrw/internal/store"
)

// Tool names.
const (
	ToolSimulate = "nrrw_simulate"
	ToolGraph    = "nrrw_graph"
	ToolBatches  = "nrrw_batches"
)

// Server wraps the MCP SDK server and exposes simulation tools.
type Server struct {
	server       *sdk.Server
	limits       config.MCPConfig
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
	store        *store.SQLiteResultStore
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "nrrw")
	Version string // Server version

	// Limits bounds tool arguments and sets the per-tool rate.
	Limits config.MCPConfig

	// Logger receives one line per tool call. Nil discards.
	Logger *slog.Logger

	// Store, when non-nil, records every simulated batch and enables the
	// nrrw_batches tool. The server does not close it.
	Store *store.SQLiteResultStore
}

// NewServer creates a new MCP server with nrrw tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mcp: nil config")
	}
	if cfg.Limits.MaxSteps == 0 || cfg.Limits.MaxCount <= 0 {
		return nil, fmt.Errorf("mcp: max_steps and max_count must be positive")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server: mcpServer,
		limits: cfg.Limits,
		toolLimiters: ratelimit.NewToolLimiters(cfg.Limits.Rate, cfg.Limits.Burst,
			ToolSimulate, ToolGraph, ToolBatches),
		logger: logger,
		store:  cfg.Store,
	}

	s.registerTools()

	return s, nil
}

// Run serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}
