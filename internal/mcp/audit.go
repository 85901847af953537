package mcp

import (
	"context"
	"log/slog"
	"time"
)

// auditTool logs one tool invocation. params are alternating key/value pairs
// of argument metadata.
func (s *Server) auditTool(ctx context.Context, toolName string, start time.Time, err error, params ...any) {
	attrs := []any{
		"tool", toolName,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	attrs = append(attrs, params...)

	if err != nil {
		s.logger.Warn("tool call failed", append(attrs, "error", err)...)
		return
	}
	s.logger.Log(ctx, slog.LevelInfo, "tool call", attrs...)
}
