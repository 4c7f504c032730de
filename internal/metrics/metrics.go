// Package metrics collects per-run Prometheus metrics and writes them in the
// node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the metrics of one wcimg invocation.
type Registry struct {
	EventsTotal       *prometheus.CounterVec
	EmptyEventsTotal  prometheus.Counter
	BlobsTotal        *prometheus.CounterVec
	SkippedBlobsTotal *prometheus.CounterVec
	PointsTotal       prometheus.Counter
	FallbackPlanes    prometheus.Counter
	StageDuration     *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}
	f := promauto.With(reg)

	r.EventsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wcimg_events_total",
			Help: "Cluster graphs processed",
		},
		[]string{"command"},
	)
	r.EmptyEventsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "wcimg_empty_events_total",
			Help: "Cluster graphs with no nodes",
		},
	)
	r.BlobsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wcimg_blobs_total",
			Help: "Blobs that produced output",
		},
		[]string{"command"},
	)
	r.SkippedBlobsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wcimg_skipped_blobs_total",
			Help: "Blobs skipped for missing wires or corners",
		},
		[]string{"command"},
	)
	r.PointsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "wcimg_points_total",
			Help: "Points sampled from blobs",
		},
	)
	r.FallbackPlanes = f.NewCounter(
		prometheus.CounterOpts{
			Name: "wcimg_plane_table_fallbacks_total",
			Help: "Channel counts with no known plane table",
		},
	)
	r.StageDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wcimg_stage_duration_seconds",
			Help:    "Duration of analysis stages in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"stage"},
	)
	return r
}

// Gatherer returns the underlying registry for scraping or testing.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordEvent counts one processed graph. Empty graphs are also counted
// separately.
func (r *Registry) RecordEvent(command string, empty bool) {
	if r == nil {
		return
	}
	r.EventsTotal.WithLabelValues(command).Inc()
	if empty {
		r.EmptyEventsTotal.Inc()
	}
}

// RecordBlobs counts blobs kept and skipped by a command.
func (r *Registry) RecordBlobs(command string, kept, skipped int) {
	if r == nil {
		return
	}
	r.BlobsTotal.WithLabelValues(command).Add(float64(kept))
	r.SkippedBlobsTotal.WithLabelValues(command).Add(float64(skipped))
}

// RecordPoints counts sampled points.
func (r *Registry) RecordPoints(n int) {
	if r == nil {
		return
	}
	r.PointsTotal.Add(float64(n))
}

// RecordPlaneFallback counts a channel total with no plane table.
func (r *Registry) RecordPlaneFallback() {
	if r == nil {
		return
	}
	r.FallbackPlanes.Inc()
}

// ObserveStage records how long a stage took.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Time returns a function that records the elapsed time of stage when called.
//
//	defer reg.Time("load")()
func (r *Registry) Time(stage string) func() {
	start := time.Now()
	return func() { r.ObserveStage(stage, time.Since(start)) }
}

// WriteTextfile writes all metrics to path atomically. A nil registry or
// empty path is a no-op.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
