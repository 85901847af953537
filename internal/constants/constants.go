// Package constants provides named constants used throughout the nrrw codebase.
package constants

// Output constants
const (
	// DefaultOutputDir is where per-run degree files are written.
	DefaultOutputDir = "output"

	// DefaultGraphFormat is the graph export format used with --graphviz.
	DefaultGraphFormat = "dot"

	// ConfigDirName is the per-user configuration directory under $HOME.
	ConfigDirName = ".nrrw"

	// ConfigFileName is the configuration file inside ConfigDirName.
	ConfigFileName = "config.yaml"
)

// MCP tool limits
const (
	// DefaultMCPMaxSteps bounds the steps a single tool call may request.
	DefaultMCPMaxSteps = 1_000_000

	// DefaultMCPMaxCount bounds the runs a single tool call may request.
	DefaultMCPMaxCount = 64

	// DefaultMCPRate is the sustained tool call rate, in calls per second.
	DefaultMCPRate = 2.0

	// DefaultMCPBurst is the number of tool calls allowed in a burst.
	DefaultMCPBurst = 5
)
