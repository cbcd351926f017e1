// Package metrics exports live controller state to Prometheus.
package metrics

import (
	"time"

	"codeberg.org/mutker/rnboctl/internal/control"
	"codeberg.org/mutker/rnboctl/internal/discovery"
	"codeberg.org/mutker/rnboctl/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rnboctl"

// Exporter owns a private registry holding the controller's metrics. It
// implements control.CycleObserver and supplies hooks for discovery and
// the OSCQuery client.
type Exporter struct {
	registry          *prometheus.Registry
	driveRatio        prometheus.Gauge
	discoveryState    prometheus.Gauge
	discoveryAttempts prometheus.Counter
	cycles            *prometheus.CounterVec
	skips             *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		driveRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drive_ratio",
			Help:      "Drive ratio currently applied to the motor and indicators.",
		}),
		discoveryState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovery_state",
			Help:      "Discovery state: 0 searching, 1 resolved, 2 timed out.",
		}),
		discoveryAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_attempts_total",
			Help:      "Fetch attempts made while searching for the output path.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed control cycles by outcome.",
		}, []string{"outcome"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_skips_total",
			Help:      "Skipped control cycles by reason.",
		}, []string{"reason"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of OSCQuery tree fetches.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}),
	}

	e.registry.MustRegister(
		e.driveRatio,
		e.discoveryState,
		e.discoveryAttempts,
		e.cycles,
		e.skips,
		e.fetchDuration,
	)

	return e
}

// Registry exposes the private registry for serving and tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) ObserveCycle(r control.CycleResult) {
	e.cycles.WithLabelValues(r.Outcome.String()).Inc()

	if r.Outcome == control.Skipped {
		reason := r.Reason
		if reason == "" {
			reason = errors.ErrInternal
		}
		e.skips.WithLabelValues(string(reason)).Inc()
		return
	}

	e.driveRatio.Set(r.Ratio)
}

// ObserveDiscoveryState is a discovery.WithStateHook callback.
func (e *Exporter) ObserveDiscoveryState(s discovery.State) {
	e.discoveryState.Set(float64(s))
}

// ObserveDiscoveryAttempt is a discovery.WithAttemptHook callback.
func (e *Exporter) ObserveDiscoveryAttempt() {
	e.discoveryAttempts.Inc()
}

// ObserveFetch is an oscquery.WithFetchObserver callback.
func (e *Exporter) ObserveFetch(d time.Duration, _ error) {
	e.fetchDuration.Observe(d.Seconds())
}

// Released records the neutral state reached on shutdown.
func (e *Exporter) Released() {
	e.driveRatio.Set(0)
}
