// Package metrics exposes Prometheus instrumentation for the pathfinding core.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector registered by the pathfinding core.
type Metrics struct {
	searches      *prometheus.CounterVec
	expansions    prometheus.Counter
	chunkRebuilds *prometheus.CounterVec
	linkMutations *prometheus.CounterVec
	links         *prometheus.GaugeVec
	smartPaths    *prometheus.CounterVec
	updateSeconds prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "navcore_searches_total",
			Help: "Completed path searches by kind and result",
		}, []string{"kind", "result"}),
		expansions: f.NewCounter(prometheus.CounterOpts{
			Name: "navcore_search_expansions_total",
			Help: "Primitives expanded by all searches",
		}),
		chunkRebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "navcore_chunk_rebuilds_total",
			Help: "Navigation chunks rebuilt by domain",
		}, []string{"domain"}),
		linkMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "navcore_link_mutations_total",
			Help: "Link graph edges added or removed by level",
		}, []string{"level", "op"}),
		links: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "navcore_links",
			Help: "Current link graph size by level",
		}, []string{"level"}),
		smartPaths: f.NewCounterVec(prometheus.CounterOpts{
			Name: "navcore_smart_path_transitions_total",
			Help: "Smart path state transitions by target state",
		}, []string{"state"}),
		updateSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "navcore_update_duration_seconds",
			Help:    "Duration of one pathfinding update tick",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50µs to ~100ms
		}),
	}
}

// SearchDone records a finished search.
func (m *Metrics) SearchDone(kind string, found bool, expanded int) {
	if m == nil {
		return
	}
	result := "none"
	if found {
		result = "found"
	}
	m.searches.WithLabelValues(kind, result).Inc()
	m.expansions.Add(float64(expanded))
}

// Expanded records search work done outside a completed search.
func (m *Metrics) Expanded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expansions.Add(float64(n))
}

// ChunksRebuilt records rebuilt chunks for a domain.
func (m *Metrics) ChunksRebuilt(domain string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunkRebuilds.WithLabelValues(domain).Add(float64(n))
}

// LinkMutation records one link added or removed.
func (m *Metrics) LinkMutation(level, op string) {
	if m == nil {
		return
	}
	m.linkMutations.WithLabelValues(level, op).Inc()
}

// LinkCount sets the current number of links for a level.
func (m *Metrics) LinkCount(level string, n int) {
	if m == nil {
		return
	}
	m.links.WithLabelValues(level).Set(float64(n))
}

// SmartPathState records a smart path entering state.
func (m *Metrics) SmartPathState(state string) {
	if m == nil {
		return
	}
	m.smartPaths.WithLabelValues(state).Inc()
}

// ObserveUpdate records the duration of one update tick in seconds.
func (m *Metrics) ObserveUpdate(seconds float64) {
	if m == nil {
		return
	}
	m.updateSeconds.Observe(seconds)
}
