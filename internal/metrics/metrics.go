// Package metrics exposes query counters for the interval index.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inodb/vibe-itree/internal/itree"
)

// Metrics stores query metrics. It implements index.Metrics.
type Metrics struct {
	reg *prometheus.Registry

	finds        *prometheus.CounterVec
	hits         *prometheus.CounterVec
	batches      *prometheus.CounterVec
	searches     *prometheus.CounterVec
	cacheHits    *prometheus.CounterVec
	skippedPairs *prometheus.CounterVec
}

// New creates a set of metrics registered on a fresh registry.
func New() *Metrics {
	m := Metrics{reg: prometheus.NewRegistry()}

	m.finds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itree",
		Name:      "find_total",
		Help:      "Total number of single-interval overlap queries.",
	}, []string{"label"})

	m.hits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itree",
		Name:      "find_hits_total",
		Help:      "Total number of records returned by single-interval queries.",
	}, []string{"label"})

	m.batches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itree",
		Name:      "batch_total",
		Help:      "Total number of batch queries.",
	}, []string{"label"})

	m.searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itree",
		Name:      "batch_searches_total",
		Help:      "Overlap searches run on behalf of batch queries.",
	}, []string{"label"})

	m.cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itree",
		Name:      "batch_cache_hits_total",
		Help:      "Batch pairs answered from an earlier identical pair.",
	}, []string{"label"})

	m.skippedPairs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "itree",
		Name:      "batch_skipped_pairs_total",
		Help:      "Batch breakpoint pairs that did not form a valid interval.",
	}, []string{"label"})

	m.reg.MustRegister(m.finds, m.hits, m.batches, m.searches, m.cacheHits, m.skippedPairs)
	return &m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveFind counts one overlap search on label and the hits it returned.
func (m *Metrics) ObserveFind(label string, hits int) {
	m.finds.WithLabelValues(label).Inc()
	m.hits.WithLabelValues(label).Add(float64(hits))
}

// ObserveBatch counts one batch query on label: the searches it ran, the bins
// answered from its cache and the breakpoint pairs it skipped.
func (m *Metrics) ObserveBatch(label string, stats itree.BatchStats) {
	m.batches.WithLabelValues(label).Inc()
	m.searches.WithLabelValues(label).Add(float64(stats.Searches))
	m.cacheHits.WithLabelValues(label).Add(float64(stats.CacheHits))
	m.skippedPairs.WithLabelValues(label).Add(float64(stats.Skipped))
}

// WriteFile writes the metrics in the Prometheus text format, suitable for
// the node_exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
