package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	runsStarted    prometheus.Counter
	runsFinished   *prometheus.CounterVec
	runsInFlight   prometheus.Gauge
	actionDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teamflow",
			Name:      "workflow_runs_started_total",
			Help:      "Workflow runs picked up by the executor.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamflow",
			Name:      "workflow_runs_finished_total",
			Help:      "Workflow runs that reached a terminal status.",
		}, []string{"status"}),
		runsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teamflow",
			Name:      "workflow_runs_in_flight",
			Help:      "Workflow runs currently executing.",
		}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teamflow",
			Name:      "workflow_action_duration_seconds",
			Help:      "Duration of individual workflow actions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(m.runsStarted, m.runsFinished, m.runsInFlight, m.actionDuration)
	return m
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsStarted.Inc()
	m.runsInFlight.Inc()
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runsFinished.WithLabelValues(status).Inc()
	m.runsInFlight.Dec()
}

func (m *Metrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.actionDuration.WithLabelValues(action, outcome).Observe(elapsed.Seconds())
}
