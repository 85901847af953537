// Package batch runs many independent growth processes concurrently and hands
// each finished run to a Sink as soon as it completes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/nvandessel/nrrw/internal/graph"
	"github.com/nvandessel/nrrw/internal/growth"
	"github.com/nvandessel/nrrw/internal/logging"
	"github.com/nvandessel/nrrw/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidCount is returned when a batch is configured with no runs.
var ErrInvalidCount = errors.New("run count must be positive")

// Config describes one batch of simulations.
type Config struct {
	Parameter uint // growth period shared by every run
	Steps     uint // transitions per run
	Count     int  // number of independent runs
	Parallel  int  // max concurrently simulating runs; <= 0 means GOMAXPROCS

	// KeepGraphs retains each run's final graph in the returned results.
	// Sinks always receive the graph.
	KeepGraphs bool

	// NewRand, when non-nil, supplies the generator for run index i.
	// Each call must return a generator not shared with any other run.
	// When nil, every run is seeded from the operating system.
	NewRand func(index int) *rand.Rand
}

// Validate checks the batch configuration.
func (c Config) Validate() error {
	if c.Parameter == 0 {
		return growth.ErrInvalidParameter
	}
	if c.Count <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidCount, c.Count)
	}
	return nil
}

func (c Config) parallel() int {
	if c.Parallel > 0 {
		return c.Parallel
	}
	return runtime.GOMAXPROCS(0)
}

// Result is the outcome of one run.
type Result struct {
	Index       int
	Degrees     []uint
	Graph       *graph.Graph
	VertexCount int
	EdgeCount   int
	Duration    time.Duration
	Err         error
}

// Sink receives finished runs. Write is called concurrently from several
// goroutines, once per run index.
type Sink interface {
	Write(ctx context.Context, r Result) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, r Result) error

// Write calls f(ctx, r).
func (f SinkFunc) Write(ctx context.Context, r Result) error {
	return f(ctx, r)
}

// Runner executes a configured batch.
type Runner struct {
	cfg     Config
	sink    Sink
	logger  *slog.Logger
	runLog  *logging.RunLogger
	metrics *metrics.Batch
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithRunLogger records one JSONL event per finished run.
func WithRunLogger(rl *logging.RunLogger) Option {
	return func(r *Runner) {
		r.runLog = rl
	}
}

// WithMetrics records batch metrics into m.
func WithMetrics(m *metrics.Batch) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner validates cfg and returns a runner. sink may be nil.
func NewRunner(cfg Config, sink Sink, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}
	r := &Runner{
		cfg:    cfg,
		sink:   sink,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run is shorthand for NewRunner(cfg, sink).Run(ctx).
func Run(ctx context.Context, cfg Config, sink Sink, opts ...Option) ([]Result, error) {
	r, err := NewRunner(cfg, sink, opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// Run simulates every run, at most Parallel at a time, and returns results
// ordered by index. A failing run does not stop its siblings; the returned
// error joins every per-run failure.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	cfg := r.cfg

	processes := make([]*growth.Process, cfg.Count)
	for i := range processes {
		var opts []growth.Option
		if cfg.NewRand != nil {
			opts = append(opts, growth.WithRand(cfg.NewRand(i)))
		}
		p, err := growth.New(cfg.Parameter, opts...)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		processes[i] = p
	}

	r.logger.Info("batch started",
		"parameter", cfg.Parameter,
		"steps", cfg.Steps,
		"count", cfg.Count,
		"parallel", cfg.parallel())

	results := make([]Result, cfg.Count)
	var g errgroup.Group
	g.SetLimit(cfg.parallel())

	for i := range processes {
		g.Go(func() error {
			results[i] = r.runOne(ctx, i, processes[i])
			processes[i] = nil
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}

	r.logger.Info("batch finished", "count", cfg.Count, "failed", len(errs))
	return results, errors.Join(errs...)
}

// runOne drives a single process to completion and persists it.
func (r *Runner) runOne(ctx context.Context, index int, p *growth.Process) Result {
	res := Result{Index: index}

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("run %d: not started: %w", index, err)
		r.fail(res)
		return res
	}

	r.metrics.RunStarted()
	r.logger.Log(ctx, logging.LevelTrace, "run started", "run", index)

	start := time.Now()
	if err := p.SimulateContext(ctx, r.cfg.Steps); err != nil {
		res.Err = fmt.Errorf("run %d: simulate: %w", index, err)
		r.fail(res)
		return res
	}
	res.Duration = time.Since(start)

	g := p.Graph()
	res.Degrees = p.DegreeSequence()
	res.Graph = g
	res.VertexCount = g.VertexCount()
	res.EdgeCount = g.EdgeCount()

	if r.sink != nil {
		if err := r.sink.Write(ctx, res); err != nil {
			res.Err = fmt.Errorf("run %d: %w", index, err)
		}
	}
	if !r.cfg.KeepGraphs {
		res.Graph = nil
	}

	if res.Err != nil {
		r.fail(res)
		return res
	}

	r.metrics.RunCompleted(r.cfg.Steps, res.VertexCount, res.Duration)
	r.logger.Debug("run finished",
		"run", index,
		"vertices", res.VertexCount,
		"duration", res.Duration)
	r.runLog.Log(map[string]any{
		"event":       "run_finished",
		"run":         index,
		"parameter":   r.cfg.Parameter,
		"steps":       r.cfg.Steps,
		"vertices":    res.VertexCount,
		"edges":       res.EdgeCount,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res
}

func (r *Runner) fail(res Result) {
	r.metrics.RunFailed()
	r.logger.Error("run failed", "run", res.Index, "error", res.Err)
	r.runLog.Log(map[string]any{
		"event": "run_failed",
		"run":   res.Index,
		"error": res.Err.Error(),
	})
}
