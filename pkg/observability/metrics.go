package observability

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine events.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	NodesTotal   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	NodesSkipped *prometheus.CounterVec
	RunsInFlight prometheus.Gauge
}

// NewMetrics creates unregistered collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		NodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Executed nodes by type and final status.",
		}, []string{"type", "status"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Execution time of nodes by type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		NodesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_skipped_total",
			Help:      "Skipped nodes by reason.",
		}, []string{"reason"}),
		RunsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Runs currently executing.",
		}),
	}
}

// Collectors returns every collector, for custom registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal, m.RunDuration, m.NodesTotal, m.NodeDuration, m.NodesSkipped, m.RunsInFlight,
	}
}

// Register adds the collectors to r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(m.Collectors()...)
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, _ *domain.RunEvent) {
			m.RunsInFlight.Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.RunsInFlight.Dec()
			status := string(e.Status)
			m.RunsTotal.WithLabelValues(status).Inc()
			m.RunDuration.WithLabelValues(status).Observe(e.Duration.Seconds())
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			typ := string(e.NodeType)
			m.NodesTotal.WithLabelValues(typ, string(e.Status)).Inc()
			m.NodeDuration.WithLabelValues(typ).Observe(e.Duration.Seconds())
		},
		OnNodeSkipped: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesSkipped.WithLabelValues(e.Reason).Inc()
		},
	}
}
