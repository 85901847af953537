package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
		{"warn filters info", "warn", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestNewLogger_TraceLabelAndErrKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(context.Background(), LevelTrace, "step", "error", "boom")
	out := buf.String()
	if !strings.Contains(out, "level=TRACE") {
		t.Errorf("expected level=TRACE in %q", out)
	}
	if !strings.Contains(out, "err=boom") {
		t.Errorf("expected error key renamed to err in %q", out)
	}
}

func TestNewRunLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	rl := NewRunLogger(dir, "info")
	if rl != nil {
		t.Error("expected nil RunLogger at info level")
	}

	rl.Log(map[string]any{"event": "run_finished"})

	if _, err := os.Stat(filepath.Join(dir, RunLogFile)); err == nil {
		t.Errorf("%s should not exist at info level", RunLogFile)
	}
}

func TestNewRunLogger_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	rl := NewRunLogger(dir, "debug")
	defer rl.Close()

	rl.Log(map[string]any{"event": "run_finished", "run": 3, "vertices": 11})

	data, err := os.ReadFile(filepath.Join(dir, RunLogFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", RunLogFile, err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if entry["event"] != "run_finished" {
		t.Errorf("event = %v, want run_finished", entry["event"])
	}
	if entry["run"] != float64(3) {
		t.Errorf("run = %v, want 3", entry["run"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in run log entry")
	}
}

func TestRunLogger_MultipleWrites(t *testing.T) {
	dir := t.TempDir()
	rl := NewRunLogger(dir, "trace")
	defer rl.Close()

	rl.Log(map[string]any{"run": 0})
	rl.Log(map[string]any{"run": 1})

	data, err := os.ReadFile(filepath.Join(dir, RunLogFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", RunLogFile, err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}
}

func TestRunLogger_NilSafety(t *testing.T) {
	var rl *RunLogger
	rl.Log(map[string]any{"event": "should_not_panic"})
	rl.Close()
}

func TestRunLogger_DoesNotMutateCallerMap(t *testing.T) {
	rl := NewRunLogger(t.TempDir(), "debug")
	defer rl.Close()

	event := map[string]any{"event": "test"}
	rl.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
}

func TestRunLogger_LogAfterClose(t *testing.T) {
	rl := NewRunLogger(t.TempDir(), "debug")
	rl.Log(map[string]any{"event": "before_close"})
	rl.Close()
	rl.Log(map[string]any{"event": "after_close"})
	rl.Close()
}

func TestNewRunLogger_CreatesDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "sub", "dir")
	rl := NewRunLogger(nested, "debug")
	if rl == nil {
		t.Fatal("expected non-nil RunLogger when dir needs creation")
	}
	defer rl.Close()

	rl.Log(map[string]any{"event": "dir_create_test"})
	if _, err := os.Stat(filepath.Join(nested, RunLogFile)); err != nil {
		t.Fatalf("%s should exist after dir creation: %v", RunLogFile, err)
	}
}
