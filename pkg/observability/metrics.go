package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Commit outcome labels for the commits_total counter.
const (
	StatusCommitted = "committed"
	StatusUnchanged = "unchanged"
	StatusAborted   = "aborted"
	StatusFailed    = "failed"
)

// Metrics holds the commit and surface collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	commits      *prometheus.CounterVec
	attempts     prometheus.Counter
	conflicts    prometheus.Counter
	duration     prometheus.Histogram
	surfaces     prometheus.Gauge
	nodesCreated prometheus.Counter
}

// NewMetrics creates the collectors under namespace and registers them with
// reg. A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "commit",
				Name:      "commits_total",
				Help:      "Commit operations by outcome.",
			},
			[]string{"status"},
		),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commit",
			Name:      "attempts_total",
			Help:      "Transform attempts, retries included.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commit",
			Name:      "conflicts_total",
			Help:      "Attempts that lost the generation race.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commit",
			Name:      "duration_seconds",
			Help:      "Time from commit start to publication.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		surfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "surface",
			Name:      "registered",
			Help:      "Currently registered surfaces.",
		}),
		nodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "nodes_created_total",
			Help:      "Nodes created through the facade.",
		}),
	}
	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.commits, m.attempts, m.conflicts, m.duration, m.surfaces, m.nodesCreated}
}

// ObserveCommit records one TryCommit outcome.
func (m *Metrics) ObserveCommit(status string, attempts, conflicts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(status).Inc()
	m.attempts.Add(float64(attempts))
	m.conflicts.Add(float64(conflicts))
	if status == StatusCommitted {
		m.duration.Observe(elapsed.Seconds())
	}
}

// SurfaceRegistered increments the surface gauge.
func (m *Metrics) SurfaceRegistered() {
	if m == nil {
		return
	}
	m.surfaces.Inc()
}

// SurfaceUnregistered decrements the surface gauge.
func (m *Metrics) SurfaceUnregistered() {
	if m == nil {
		return
	}
	m.surfaces.Dec()
}

// NodeCreated counts a node created through the facade.
func (m *Metrics) NodeCreated() {
	if m == nil {
		return
	}
	m.nodesCreated.Inc()
}
