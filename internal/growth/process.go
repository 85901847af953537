// Package growth implements the node-reinforced random walk: a walker moves
// along uniformly chosen incident edges of a multigraph, and every Parameter
// steps the vertex it stands on sprouts a new leaf.
package growth

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/nrrw/internal/graph"
)

// ErrInvalidParameter is returned by New when the growth period is zero.
var ErrInvalidParameter = errors.New("growth parameter must be positive")

// CheckInterval is how many steps SimulateContext takes between context checks.
const CheckInterval = 4096

// Process owns one growing graph and one walker. It is not safe for
// concurrent use; drive each Process from a single goroutine.
type Process struct {
	graph     *graph.Graph
	current   graph.VertexID
	counter   uint
	parameter uint
	rng       *rand.Rand
}

// Option configures a Process.
type Option func(*Process)

// WithRand makes the process draw from r instead of a freshly seeded generator.
// r must not be shared with another goroutine.
func WithRand(r *rand.Rand) Option {
	return func(p *Process) {
		p.rng = r
	}
}

// New creates a process whose graph is a single vertex with one self-loop and
// whose walker starts on that vertex.
func New(parameter uint, opts ...Option) (*Process, error) {
	if parameter == 0 {
		return nil, ErrInvalidParameter
	}

	g := graph.New()
	root := g.AddVertex()
	if _, err := g.AddEdge(root, root); err != nil {
		return nil, fmt.Errorf("seed graph: %w", err)
	}

	p := &Process{
		graph:     g,
		current:   root,
		parameter: parameter,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = NewRand()
	}
	return p, nil
}

// NewRand returns a generator seeded from the operating system's entropy source.
func NewRand() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// Step advances the walk by one transition and returns the step counter.
func (p *Process) Step() uint {
	incident := p.graph.Incident(p.current)
	e := incident[p.rng.IntN(len(incident))]
	p.current = p.graph.Other(e, p.current)
	p.counter++

	if p.counter%p.parameter == 0 {
		leaf := p.graph.AddVertex()
		if _, err := p.graph.AddEdge(p.current, leaf); err != nil {
			// current always refers to an existing vertex
			panic(fmt.Sprintf("growth: attach leaf: %v", err))
		}
	}

	return p.counter
}

// Simulate resets the step counter and takes exactly steps transitions on top
// of the existing graph.
func (p *Process) Simulate(steps uint) {
	p.counter = 0
	for p.counter < steps {
		p.Step()
	}
}

// SimulateContext behaves like Simulate but stops early, returning ctx.Err(),
// once ctx is done. The graph is left in the valid state reached so far.
func (p *Process) SimulateContext(ctx context.Context, steps uint) error {
	p.counter = 0
	for p.counter < steps {
		if p.counter%CheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		p.Step()
	}
	return nil
}

// DegreeSequence returns the degree of every vertex in creation order.
// A self-loop contributes 2.
func (p *Process) DegreeSequence() []uint {
	return p.graph.Degrees()
}

// Graph returns the process's graph. Callers must not mutate it.
func (p *Process) Graph() *graph.Graph {
	return p.graph
}

// Current returns the walker's vertex.
func (p *Process) Current() graph.VertexID {
	return p.current
}

// Steps returns the number of transitions taken since the last Simulate call.
func (p *Process) Steps() uint {
	return p.counter
}

// Parameter returns the growth period.
func (p *Process) Parameter() uint {
	return p.parameter
}
