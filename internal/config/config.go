// Package config provides unified configuration loading for nrrw.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/nrrw/internal/constants"
	"gopkg.in/yaml.v3"
)

// NRRWConfig contains all nrrw configuration settings.
type NRRWConfig struct {
	// Simulation contains settings for the batch runner.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Output contains settings for persisted artifacts.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and run-event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP contains limits for the MCP tool server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// SimulationConfig configures how batches execute.
type SimulationConfig struct {
	// Parallel caps concurrently simulating runs. 0 uses GOMAXPROCS.
	Parallel int `json:"parallel" yaml:"parallel"`
}

// OutputConfig configures where results go.
type OutputConfig struct {
	// Dir receives degrees_<i>.csv and, with Graphs set, graph_<i>.<ext>.
	Dir string `json:"dir" yaml:"dir"`

	// Graphs enables export of each run's final graph.
	Graphs bool `json:"graphs" yaml:"graphs"`

	// GraphFormat is "dot" (default) or "json".
	GraphFormat string `json:"graph_format" yaml:"graph_format"`

	// Database, when set, is a SQLite file that also receives every run.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`

	// MetricsFile, when set, receives batch metrics in Prometheus text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// LoggingConfig configures nrrw's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", "trace", "warn" or "error".
	// "debug" and "trace" also append run events to <output>/runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// MCPConfig bounds what a single MCP tool call may ask for.
type MCPConfig struct {
	MaxSteps uint    `json:"max_steps" yaml:"max_steps"`
	MaxCount int     `json:"max_count" yaml:"max_count"`
	Rate     float64 `json:"rate" yaml:"rate"`
	Burst    int     `json:"burst" yaml:"burst"`
}

// Default returns a NRRWConfig with sensible defaults.
func Default() *NRRWConfig {
	return &NRRWConfig{
		Output: OutputConfig{
			Dir:         constants.DefaultOutputDir,
			GraphFormat: constants.DefaultGraphFormat,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		MCP: MCPConfig{
			MaxSteps: constants.DefaultMCPMaxSteps,
			MaxCount: constants.DefaultMCPMaxCount,
			Rate:     constants.DefaultMCPRate,
			Burst:    constants.DefaultMCPBurst,
		},
	}
}

// DefaultPath returns ~/.nrrw/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.nrrw/config.yaml -> environment variables
func Load() (*NRRWConfig, error) {
	return LoadPath("")
}

// LoadPath is like Load but reads path instead of the default file when path
// is non-empty. An explicit path must exist.
func LoadPath(path string) (*NRRWConfig, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	} else if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*NRRWConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Output.Dir = os.ExpandEnv(config.Output.Dir)
	config.Output.Database = os.ExpandEnv(config.Output.Database)
	config.Output.MetricsFile = os.ExpandEnv(config.Output.MetricsFile)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *NRRWConfig) Validate() error {
	if c.Simulation.Parallel < 0 {
		return fmt.Errorf("parallel must be non-negative, got %d", c.Simulation.Parallel)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output dir must not be empty")
	}

	validFormats := map[string]bool{"": true, "dot": true, "json": true}
	if !validFormats[c.Output.GraphFormat] {
		return fmt.Errorf("invalid graph format: %s (valid: dot, json)", c.Output.GraphFormat)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}

	if c.MCP.MaxCount < 0 {
		return fmt.Errorf("mcp max_count must be non-negative, got %d", c.MCP.MaxCount)
	}
	if c.MCP.Rate < 0 || c.MCP.Burst < 0 {
		return fmt.Errorf("mcp rate and burst must be non-negative")
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *NRRWConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *NRRWConfig) {
	if v := os.Getenv("NRRW_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Parallel = n
		}
	}

	if v := os.Getenv("NRRW_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}

	if v := os.Getenv("NRRW_GRAPHVIZ"); v != "" {
		config.Output.Graphs = v == "true" || v == "1"
	}

	if v := os.Getenv("NRRW_GRAPH_FORMAT"); v != "" {
		config.Output.GraphFormat = v
	}

	if v := os.Getenv("NRRW_DB"); v != "" {
		config.Output.Database = v
	}

	if v := os.Getenv("NRRW_METRICS_FILE"); v != "" {
		config.Output.MetricsFile = v
	}

	if v := os.Getenv("NRRW_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("NRRW_MCP_MAX_STEPS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 0); err == nil {
			config.MCP.MaxSteps = uint(n)
		}
	}

	if v := os.Getenv("NRRW_MCP_MAX_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MCP.MaxCount = n
		}
	}
}
