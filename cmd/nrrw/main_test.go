package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/nvandessel/nrrw/internal/growth"
	"github.com/nvandessel/nrrw/internal/store"
)

// isolateEnv points HOME at a temp directory and clears NRRW_* overrides so a
// developer's ~/.nrrw/config.yaml never leaks into tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "NRRW_") {
			t.Setenv(k, "")
		}
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Errorf("%s has no trailing newline", path)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRootCmd_UsageErrors(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"one arg", []string{"3"}},
		{"too many args", []string{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), "usage: nrrw") {
				t.Errorf("expected usage error, got %v", err)
			}
		})
	}
}

func TestRootCmd_InvalidArguments(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "out")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"non-numeric parameter", []string{"abc", "10"}, `PARAMETER "abc"`},
		{"fractional steps", []string{"2", "2.5"}, `STEPS "2.5"`},
		{"non-numeric count", []string{"2", "5", "many"}, `COUNT "many"`},
		{"zero count", []string{"2", "5", "0"}, `COUNT "0"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"-o", out}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}

	if _, err := os.Stat(out); err == nil {
		t.Error("output directory should not be created for invalid arguments")
	}
}

func TestRootCmd_ZeroParameter(t *testing.T) {
	isolateEnv(t)
	_, _, err := execute(t, "-o", t.TempDir(), "0", "10")
	if !errors.Is(err, growth.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestRootCmd_WritesDegreeFiles(t *testing.T) {
	isolateEnv(t)
	dir := filepath.Join(t.TempDir(), "results")

	stdout, _, err := execute(t, "-o", dir, "-j", "2", "3", "6", "4")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	sort.Strings(lines)
	want := []string{"FINISHED (0)", "FINISHED (1)", "FINISHED (2)", "FINISHED (3)"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("stdout lines = %q, want %q", lines, want)
	}

	for i := 0; i < 4; i++ {
		degrees := readLines(t, filepath.Join(dir, fmt.Sprintf("degrees_%d.csv", i)))
		if len(degrees) != 3 {
			t.Errorf("run %d: got %d degrees, want 3", i, len(degrees))
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "graph_0.dot")); err == nil {
		t.Error("graph_0.dot should not exist without --graphviz")
	}
}

func TestRootCmd_DefaultCountAndSeedGraph(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	stdout, _, err := execute(t, "-o", dir, "1", "0")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if stdout != "FINISHED (0)\n" {
		t.Errorf("stdout = %q, want %q", stdout, "FINISHED (0)\n")
	}
	if got := readLines(t, filepath.Join(dir, "degrees_0.csv")); len(got) != 1 || got[0] != "2" {
		t.Errorf("degrees_0.csv = %q, want [2]", got)
	}
}

func TestRootCmd_Graphviz(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	if _, _, err := execute(t, "-o", dir, "--graphviz", "1", "0"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "graph_0.dot"))
	if err != nil {
		t.Fatalf("failed to read graph_0.dot: %v", err)
	}
	want := "graph G {\ngraph [ranksep=4 nodesep=1]\nnode [shape=point]\n0[label=\"\"];\n0--0 ;\n}\n"
	if string(data) != want {
		t.Errorf("graph_0.dot = %q, want %q", data, want)
	}
}

func TestRootCmd_DatabaseAndMetrics(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	metricsPath := filepath.Join(dir, "nrrw.prom")

	_, _, err := execute(t, "-o", dir, "--db", dbPath, "--metrics-file", metricsPath, "2", "10", "3")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	batches, err := st.Batches(ctx)
	if err != nil || len(batches) != 1 {
		t.Fatalf("Batches() = %v, %v; want one batch", batches, err)
	}
	runs, err := st.Runs(ctx, batches[0].ID)
	if err != nil || len(runs) != 3 {
		t.Fatalf("Runs() = %v, %v; want three runs", runs, err)
	}
	for _, r := range runs {
		if r.VertexCount != 6 {
			t.Errorf("run %d: VertexCount = %d, want 6", r.Index, r.VertexCount)
		}
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("failed to read metrics file: %v", err)
	}
	if !strings.Contains(string(prom), "nrrw_runs_completed_total 3") {
		t.Errorf("metrics file missing completed counter:\n%s", prom)
	}
}

func TestRootCmd_DebugWritesRunLog(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	_, stderr, err := execute(t, "-o", dir, "--log-level", "debug", "2", "4", "2")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !strings.Contains(stderr, "batch finished") {
		t.Errorf("stderr missing batch log line: %q", stderr)
	}
	if lines := readLines(t, filepath.Join(dir, "runs.jsonl")); len(lines) != 2 {
		t.Errorf("runs.jsonl has %d lines, want 2", len(lines))
	}
}

func TestRootCmd_EnvOutputDir(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	t.Setenv("NRRW_OUTPUT_DIR", dir)

	if _, _, err := execute(t, "1", "3"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "degrees_0.csv")); err != nil {
		t.Errorf("expected degrees_0.csv in NRRW_OUTPUT_DIR: %v", err)
	}
}

func TestRootCmd_InvalidFlagValue(t *testing.T) {
	isolateEnv(t)
	_, _, err := execute(t, "-o", t.TempDir(), "--graph-format", "svg", "1", "1")
	if err == nil || !strings.Contains(err.Error(), "invalid graph format") {
		t.Errorf("expected invalid graph format error, got %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "nrrw version "+version) {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	if !strings.Contains(stdout, `"version":"`+version+`"`) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestConfigCmd(t *testing.T) {
	isolateEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "nrrw.yaml")
	if err := os.WriteFile(cfgPath, []byte("output:\n  dir: from-file\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, _, err := execute(t, "config", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(stdout, "dir: from-file") {
		t.Errorf("config output missing file value:\n%s", stdout)
	}

	_, _, err = execute(t, "config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestMCPServerCmd(t *testing.T) {
	cmd := newMCPServerCmd()
	if cmd.Use != "mcp-server" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp-server")
	}
}
