package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/nrrw/internal/batch"
	"github.com/nvandessel/nrrw/internal/growth"
	"github.com/nvandessel/nrrw/internal/ratelimit"
	"github.com/nvandessel/nrrw/internal/visualization"
)

// registerTools registers all nrrw MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolSimulate,
		Description: "Run independent node-reinforced random walks and return each run's vertex degree sequence",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolGraph,
		Description: "Run one node-reinforced random walk and return its final graph as DOT or JSON",
	}, s.handleGraph)

	if s.store != nil {
		sdk.AddTool(s.server, &sdk.Tool{
			Name:        ToolBatches,
			Description: "List batches recorded in the results store, or the runs of one batch",
		}, s.handleBatches)
	}
}

// checkBounds rejects arguments outside the configured limits.
func (s *Server) checkBounds(parameter, steps uint, count int) error {
	if parameter == 0 {
		return growth.ErrInvalidParameter
	}
	if steps > s.limits.MaxSteps {
		return fmt.Errorf("steps %d exceeds limit %d", steps, s.limits.MaxSteps)
	}
	if count < 1 || count > s.limits.MaxCount {
		return fmt.Errorf("count must be between 1 and %d, got %d", s.limits.MaxCount, count)
	}
	return nil
}

// handleSimulate implements the nrrw_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ctx, ToolSimulate, start, retErr,
			"parameter", args.Parameter, "steps", args.Steps, "count", args.Count)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}

	count := args.Count
	if count == 0 {
		count = 1
	}
	if err := s.checkBounds(args.Parameter, args.Steps, count); err != nil {
		return nil, SimulateOutput{}, err
	}

	cfg := batch.Config{
		Parameter: args.Parameter,
		Steps:     args.Steps,
		Count:     count,
	}

	var out SimulateOutput
	var sink batch.Sink
	if s.store != nil {
		w, err := s.store.BeginBatch(ctx, cfg)
		if err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("record batch: %w", err)
		}
		out.BatchID = w.ID()
		sink = w
	}

	results, err := batch.Run(ctx, cfg, sink, batch.WithLogger(s.logger))
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	out.Runs = make([]RunSummary, len(results))
	for i, r := range results {
		out.Runs[i] = RunSummary{
			Index:       r.Index,
			VertexCount: r.VertexCount,
			EdgeCount:   r.EdgeCount,
			Degrees:     r.Degrees,
		}
	}
	return nil, out, nil
}

// handleGraph implements the nrrw_graph tool.
func (s *Server) handleGraph(ctx context.Context, req *sdk.CallToolRequest, args GraphInput) (_ *sdk.CallToolResult, _ GraphOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ctx, ToolGraph, start, retErr,
			"parameter", args.Parameter, "steps", args.Steps, "format", args.Format)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolGraph); err != nil {
		return nil, GraphOutput{}, err
	}

	format := visualization.FormatDOT
	if args.Format != "" {
		f, err := visualization.ParseFormat(args.Format)
		if err != nil {
			return nil, GraphOutput{}, err
		}
		format = f
	}
	if err := s.checkBounds(args.Parameter, args.Steps, 1); err != nil {
		return nil, GraphOutput{}, err
	}

	p, err := growth.New(args.Parameter)
	if err != nil {
		return nil, GraphOutput{}, err
	}
	if err := p.SimulateContext(ctx, args.Steps); err != nil {
		return nil, GraphOutput{}, fmt.Errorf("simulate: %w", err)
	}

	g := p.Graph()
	out := GraphOutput{
		Format:      string(format),
		VertexCount: g.VertexCount(),
		EdgeCount:   g.EdgeCount(),
	}
	switch format {
	case visualization.FormatJSON:
		out.Graph = visualization.RenderJSON(g)
	default:
		out.Graph = visualization.RenderDOT(g)
	}
	return nil, out, nil
}

// handleBatches implements the nrrw_batches tool.
func (s *Server) handleBatches(ctx context.Context, req *sdk.CallToolRequest, args BatchesInput) (_ *sdk.CallToolResult, _ BatchesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ctx, ToolBatches, start, retErr, "batch_id", args.BatchID)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ToolBatches); err != nil {
		return nil, BatchesOutput{}, err
	}
	if s.store == nil {
		return nil, BatchesOutput{}, fmt.Errorf("no results store configured")
	}

	var out BatchesOutput
	if args.BatchID != 0 {
		runs, err := s.store.Runs(ctx, args.BatchID)
		if err != nil {
			return nil, BatchesOutput{}, err
		}
		out.Runs = make([]RunItem, 0, len(runs))
		for _, r := range runs {
			out.Runs = append(out.Runs, RunItem{
				Index:       r.Index,
				VertexCount: r.VertexCount,
				EdgeCount:   r.EdgeCount,
				DurationMs:  r.Duration.Milliseconds(),
			})
		}
		return nil, out, nil
	}

	batches, err := s.store.Batches(ctx)
	if err != nil {
		return nil, BatchesOutput{}, err
	}
	out.Batches = make([]BatchItem, 0, len(batches))
	for _, b := range batches {
		out.Batches = append(out.Batches, BatchItem{
			ID:        b.ID,
			Parameter: b.Parameter,
			Steps:     b.Steps,
			RunCount:  b.RunCount,
			CreatedAt: b.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}
