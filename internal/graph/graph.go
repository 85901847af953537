// Package graph provides the append-only undirected multigraph grown by the
// simulation. Self-loops and parallel edges are allowed; vertices and edges are
// never removed, so identifiers stay valid for the lifetime of a Graph.
package graph

import (
	"errors"
	"fmt"
)

// ErrUnknownVertex is returned when an edge references a vertex that does not exist.
var ErrUnknownVertex = errors.New("unknown vertex")

// VertexID identifies a vertex by creation order (0, 1, 2, ...).
type VertexID int

// EdgeID identifies an edge by creation order (0, 1, 2, ...).
type EdgeID int

// Edge is an unordered pair of endpoints. U == V for a self-loop.
type Edge struct {
	U VertexID `json:"u"`
	V VertexID `json:"v"`
}

// IsLoop reports whether the edge is a self-loop.
func (e Edge) IsLoop() bool {
	return e.U == e.V
}

// Graph is an undirected multigraph. It is not safe for concurrent mutation.
type Graph struct {
	// incidence[v] lists every edge touching v, in insertion order.
	// A self-loop is listed once.
	incidence [][]EdgeID
	edges     []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddVertex appends a vertex with no incident edges and returns its ID.
func (g *Graph) AddVertex() VertexID {
	g.incidence = append(g.incidence, nil)
	return VertexID(len(g.incidence) - 1)
}

// AddEdge connects u and v. Passing the same vertex twice adds a self-loop.
func (g *Graph) AddEdge(u, v VertexID) (EdgeID, error) {
	if !g.HasVertex(u) {
		return 0, fmt.Errorf("add edge %d--%d: %w: %d", u, v, ErrUnknownVertex, u)
	}
	if !g.HasVertex(v) {
		return 0, fmt.Errorf("add edge %d--%d: %w: %d", u, v, ErrUnknownVertex, v)
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{U: u, V: v})
	g.incidence[u] = append(g.incidence[u], id)
	if u != v {
		g.incidence[v] = append(g.incidence[v], id)
	}
	return id, nil
}

// HasVertex reports whether v exists.
func (g *Graph) HasVertex(v VertexID) bool {
	return v >= 0 && int(v) < len(g.incidence)
}

// Incident returns the edges touching v. The returned slice is owned by the
// graph and must not be modified.
func (g *Graph) Incident(v VertexID) []EdgeID {
	if !g.HasVertex(v) {
		return nil
	}
	return g.incidence[v]
}

// Endpoints returns the edge with the given ID.
func (g *Graph) Endpoints(e EdgeID) Edge {
	return g.edges[e]
}

// Other returns the endpoint of e opposite to v. For a self-loop it returns v.
func (g *Graph) Other(e EdgeID, v VertexID) VertexID {
	edge := g.edges[e]
	if edge.U == v {
		return edge.V
	}
	return edge.U
}

// Degree returns the number of edge endpoints at v. A self-loop counts twice.
func (g *Graph) Degree(v VertexID) uint {
	var d uint
	for _, e := range g.Incident(v) {
		if g.edges[e].IsLoop() {
			d += 2
		} else {
			d++
		}
	}
	return d
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	return len(g.incidence)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edges returns all edges in creation order. The slice is owned by the graph.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Degrees returns the degree of every vertex in creation order.
func (g *Graph) Degrees() []uint {
	out := make([]uint, len(g.incidence))
	for v := range g.incidence {
		out[v] = g.Degree(VertexID(v))
	}
	return out
}

// Connected reports whether every vertex is reachable from vertex 0.
// An empty graph is considered connected.
func (g *Graph) Connected() bool {
	n := len(g.incidence)
	if n == 0 {
		return true
	}

	visited := make([]bool, n)
	visited[0] = true
	queue := []VertexID{0}
	seen := 1

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, e := range g.incidence[v] {
			w := g.Other(e, v)
			if !visited[w] {
				visited[w] = true
				seen++
				queue = append(queue, w)
			}
		}
	}

	return seen == n
}
