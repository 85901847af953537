// Package metrics exposes Prometheus collectors describing a simulation batch.
// Collectors live in a private registry so that concurrent batches (and tests)
// never collide, and are written out as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nrrw"

// Batch holds the collectors for one batch run. A nil *Batch is safe to use;
// all methods are no-ops on nil receiver.
type Batch struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runsFailed    prometheus.Counter
	steps         prometheus.Counter
	vertices      prometheus.Histogram
	duration      prometheus.Histogram
}

// NewBatch creates and registers the batch collectors.
func NewBatch() *Batch {
	b := &Batch{
		registry: prometheus.NewRegistry(),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Number of growth processes started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Number of growth processes whose degree sequence was persisted.",
		}),
		runsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Number of growth processes that failed or were cancelled.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Walker transitions taken across all runs.",
		}),
		vertices: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_vertices",
			Help:      "Final vertex count per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time spent simulating one run.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	b.registry.MustRegister(
		b.runsStarted,
		b.runsCompleted,
		b.runsFailed,
		b.steps,
		b.vertices,
		b.duration,
	)
	return b
}

// Registry returns the registry holding the batch collectors.
func (b *Batch) Registry() *prometheus.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// RunStarted records that a run began simulating.
func (b *Batch) RunStarted() {
	if b == nil {
		return
	}
	b.runsStarted.Inc()
}

// RunCompleted records a finished run.
func (b *Batch) RunCompleted(steps uint, vertices int, elapsed time.Duration) {
	if b == nil {
		return
	}
	b.runsCompleted.Inc()
	b.steps.Add(float64(steps))
	b.vertices.Observe(float64(vertices))
	b.duration.Observe(elapsed.Seconds())
}

// RunFailed records a run that could not be simulated or persisted.
func (b *Batch) RunFailed() {
	if b == nil {
		return
	}
	b.runsFailed.Inc()
}

// WriteTextfile writes all batch metrics to path in the Prometheus text format.
func (b *Batch) WriteTextfile(path string) error {
	if b == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, b.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
