// Package output persists finished runs as plain files and announces them.
package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/nvandessel/nrrw/internal/batch"
	"github.com/nvandessel/nrrw/internal/visualization"
)

// WriteDegrees writes one degree per line, each followed by a newline.
func WriteDegrees(w io.Writer, degrees []uint) error {
	bw := bufio.NewWriter(w)
	var buf [20]byte
	for _, d := range degrees {
		line := strconv.AppendUint(buf[:0], uint64(d), 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DegreesPath returns the degree file path for run index i.
func DegreesPath(dir string, i int) string {
	return filepath.Join(dir, "degrees_"+strconv.Itoa(i)+".csv")
}

// GraphPath returns the graph export path for run index i.
func GraphPath(dir string, i int, format visualization.Format) string {
	return filepath.Join(dir, "graph_"+strconv.Itoa(i)+format.Ext())
}

// DirSink writes degrees_<i>.csv, and optionally graph_<i>.<ext>, into Dir.
// Distinct runs touch distinct files, so Write is safe for concurrent use.
type DirSink struct {
	Dir         string
	Graphs      bool
	GraphFormat visualization.Format
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string, graphs bool, format visualization.Format) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirSink{Dir: dir, Graphs: graphs, GraphFormat: format}, nil
}

// Write persists one run.
func (s *DirSink) Write(ctx context.Context, r batch.Result) error {
	path := DegreesPath(s.Dir, r.Index)
	if err := writeFile(path, func(w io.Writer) error { return WriteDegrees(w, r.Degrees) }); err != nil {
		return fmt.Errorf("write degrees: %w", err)
	}

	if s.Graphs && r.Graph != nil {
		gp := GraphPath(s.Dir, r.Index, s.GraphFormat)
		if err := visualization.WriteFile(gp, r.Graph, s.GraphFormat); err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
	}
	return nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Announcer prints one completion line per run. Lines from concurrent runs
// never interleave.
type Announcer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAnnouncer returns an announcer writing to w.
func NewAnnouncer(w io.Writer) *Announcer {
	return &Announcer{w: w}
}

// Write prints "FINISHED (<index>)".
func (a *Announcer) Write(ctx context.Context, r batch.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := fmt.Fprintf(a.w, "FINISHED (%d)\n", r.Index)
	return err
}

// MultiSink calls each sink in order and stops at the first error, so later
// sinks (such as an Announcer) only see runs the earlier ones persisted.
type MultiSink []batch.Sink

// Write fans r out to every sink.
func (m MultiSink) Write(ctx context.Context, r batch.Result) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
