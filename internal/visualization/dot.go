// Package visualization renders grown graphs in text-based graph formats.
package visualization

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/nrrw/internal/graph"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	default:
		return ".dot"
	}
}

// ParseFormat validates a format name. The empty string selects DOT.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q (use 'dot' or 'json')", s)
	}
}

// RenderDOT produces an undirected Graphviz description of g. Vertices are
// drawn as unlabeled points and edges as plain connections.
func RenderDOT(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("graph G {\n")
	b.WriteString("graph [ranksep=4 nodesep=1]\n")
	b.WriteString("node [shape=point]\n")

	for v := 0; v < g.VertexCount(); v++ {
		b.WriteString(strconv.Itoa(v))
		b.WriteString("[label=\"\"];\n")
	}

	// Parallel edges and self-loops are emitted as-is; Graphviz draws each one.
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "%d--%d ;\n", e.U, e.V)
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON graph representation with degree and edge arrays.
func RenderJSON(g *graph.Graph) map[string]interface{} {
	return map[string]interface{}{
		"degrees":      g.Degrees(),
		"edges":        g.Edges(),
		"vertex_count": g.VertexCount(),
		"edge_count":   g.EdgeCount(),
	}
}

// Write renders g to w in the given format.
func Write(w io.Writer, g *graph.Graph, format Format) error {
	switch format {
	case FormatDOT, "":
		if _, err := io.WriteString(w, RenderDOT(g)); err != nil {
			return fmt.Errorf("write DOT: %w", err)
		}
	case FormatJSON:
		if err := json.NewEncoder(w).Encode(RenderJSON(g)); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}
	return nil
}

// WriteFile renders g to path, replacing any existing file.
func WriteFile(path string, g *graph.Graph, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	if err := Write(f, g, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
