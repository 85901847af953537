package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/nvandessel/nrrw/internal/batch"
	"github.com/nvandessel/nrrw/internal/config"
	"github.com/nvandessel/nrrw/internal/growth"
	"github.com/nvandessel/nrrw/internal/logging"
	"github.com/nvandessel/nrrw/internal/metrics"
	"github.com/nvandessel/nrrw/internal/output"
	"github.com/nvandessel/nrrw/internal/store"
	"github.com/nvandessel/nrrw/internal/visualization"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

const usageLine = "usage: nrrw [flags] PARAMETER STEPS [COUNT]"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nrrw [flags] PARAMETER STEPS [COUNT]",
		Short: "Node-reinforced random walk simulator",
		Long: `nrrw grows a multigraph with a random walker and records degree sequences.

Starting from one vertex with a self-loop, the walker follows a uniformly
chosen incident edge at every step, and every PARAMETER steps the vertex it
stands on gains a new leaf. COUNT independent runs (default 1) of STEPS
transitions each are simulated in parallel. Run i writes its degree
sequence to <output>/degrees_<i>.csv and prints "FINISHED (i)".`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args) > 3 {
				return errors.New(usageLine)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBatch,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.nrrw/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace, warn, error")

	rootCmd.Flags().StringP("output", "o", "", "Output directory (default \"output\")")
	rootCmd.Flags().IntP("parallel", "j", 0, "Max concurrent runs (default GOMAXPROCS)")
	rootCmd.Flags().Bool("graphviz", false, "Also write graph_<i>.dot for every run")
	rootCmd.Flags().String("graph-format", "", "Graph export format: dot or json")
	rootCmd.Flags().String("db", "", "SQLite file that also records every run")
	rootCmd.Flags().String("metrics-file", "", "Write batch metrics in Prometheus text format to this file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// batchArgs holds the parsed positional arguments.
type batchArgs struct {
	parameter uint
	steps     uint
	count     int
}

func parseBatchArgs(args []string) (batchArgs, error) {
	var ba batchArgs

	parameter, err := strconv.ParseUint(args[0], 10, 0)
	if err != nil {
		return ba, fmt.Errorf("invalid PARAMETER %q: must be a positive integer", args[0])
	}
	if parameter == 0 {
		return ba, fmt.Errorf("invalid PARAMETER %q: %w", args[0], growth.ErrInvalidParameter)
	}
	steps, err := strconv.ParseUint(args[1], 10, 0)
	if err != nil {
		return ba, fmt.Errorf("invalid STEPS %q: must be a non-negative integer", args[1])
	}
	ba.parameter = uint(parameter)
	ba.steps = uint(steps)

	ba.count = 1
	if len(args) == 3 {
		count, err := strconv.Atoi(args[2])
		if err != nil || count < 1 {
			return ba, fmt.Errorf("invalid COUNT %q: must be a positive integer", args[2])
		}
		ba.count = count
	}
	return ba, nil
}

// loadConfig resolves the effective configuration: defaults, config file,
// NRRW_* environment, then any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.NRRWConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		cfg.Logging.Level = f.Value.String()
	}
	if f := flags.Lookup("output"); f != nil && f.Changed {
		cfg.Output.Dir = f.Value.String()
	}
	if f := flags.Lookup("parallel"); f != nil && f.Changed {
		cfg.Simulation.Parallel, _ = flags.GetInt("parallel")
	}
	if f := flags.Lookup("graphviz"); f != nil && f.Changed {
		cfg.Output.Graphs, _ = flags.GetBool("graphviz")
	}
	if f := flags.Lookup("graph-format"); f != nil && f.Changed {
		cfg.Output.GraphFormat = f.Value.String()
	}
	if f := flags.Lookup("db"); f != nil && f.Changed {
		cfg.Output.Database = f.Value.String()
	}
	if f := flags.Lookup("metrics-file"); f != nil && f.Changed {
		cfg.Output.MetricsFile = f.Value.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	ba, err := parseBatchArgs(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	format, err := visualization.ParseFormat(cfg.Output.GraphFormat)
	if err != nil {
		return err
	}

	dirSink, err := output.NewDirSink(cfg.Output.Dir, cfg.Output.Graphs, format)
	if err != nil {
		return err
	}
	sinks := output.MultiSink{dirSink}

	bcfg := batch.Config{
		Parameter: ba.parameter,
		Steps:     ba.steps,
		Count:     ba.count,
		Parallel:  cfg.Simulation.Parallel,
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if cfg.Output.Database != "" {
		st, err := store.Open(cfg.Output.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		w, err := st.BeginBatch(ctx, bcfg)
		if err != nil {
			return err
		}
		logger.Debug("recording batch", "db", st.Path(), "batch_id", w.ID())
		sinks = append(sinks, w)
	}
	sinks = append(sinks, output.NewAnnouncer(cmd.OutOrStdout()))

	runLog := logging.NewRunLogger(cfg.Output.Dir, cfg.Logging.Level)
	defer runLog.Close()

	var m *metrics.Batch
	if cfg.Output.MetricsFile != "" {
		m = metrics.NewBatch()
	}

	results, runErr := batch.Run(ctx, bcfg, sinks,
		batch.WithLogger(logger),
		batch.WithRunLogger(runLog),
		batch.WithMetrics(m),
	)

	if cfg.Output.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.Output.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		return fmt.Errorf("%d of %d runs failed: %w", failed, ba.count, runErr)
	}
	return nil
}
