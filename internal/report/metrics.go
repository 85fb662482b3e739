package report

import (
	"fmt"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/engine"
	"github.com/jenkinsator/jenkinsator/internal/ir"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-invocation counters for a node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry
	results  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.GaugeVec
	lastRun  prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jenkinsator_results_total",
			Help: "Items processed, by kind, action and outcome.",
		}, []string{"kind", "action", "status", "mode"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jenkinsator_item_failures_total",
			Help: "Items whose action failed with a fatal error.",
		}, []string{"action"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jenkinsator_run_duration_seconds",
			Help: "Wall time of the last invocation.",
		}, []string{"action"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jenkinsator_last_run_timestamp_seconds",
			Help: "Unix time the last invocation finished.",
		}),
	}
	m.registry.MustRegister(m.results, m.failures, m.duration, m.lastRun)
	return m
}

// Observe counts every result of a finished batch.
func (m *Metrics) Observe(results []ir.Result, mode ir.Mode) {
	for _, r := range results {
		m.results.WithLabelValues(r.Kind, r.Action, string(r.Status), mode.String()).Inc()
	}
}

// ObserveEvent counts failed items as the engine reports them.
func (m *Metrics) ObserveEvent(event engine.Event) {
	if event.Status == "failed" {
		m.failures.WithLabelValues(event.Action).Inc()
	}
}

// Finish records the run duration and completion time.
func (m *Metrics) Finish(action string, elapsed time.Duration, now time.Time) {
	m.duration.WithLabelValues(action).Set(elapsed.Seconds())
	m.lastRun.Set(float64(now.Unix()))
}

// WriteFile atomically replaces path with the collected metrics.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
