// Package metrics exposes Prometheus collectors for the activity counters and
// the trial lifecycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine bundles the collectors. A nil *Engine is a valid no-op.
type Engine struct {
	registry         *prometheus.Registry
	activityIncr     *prometheus.CounterVec
	trialTransitions *prometheus.CounterVec
	trialRuns        *prometheus.CounterVec
	trialRunDuration prometheus.Histogram
	eventsDropped    prometheus.Counter
}

// New registers the engine collectors plus Go/process collectors on a private registry.
func New() *Engine {
	reg := prometheus.NewRegistry()
	e := &Engine{
		registry: reg,
		activityIncr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_activity_increments_total",
			Help: "Activity counter increments by activity type and result.",
		}, []string{"activity_type", "result"}),
		trialTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_trial_transitions_total",
			Help: "Per-user trial expiry outcomes.",
		}, []string{"result"}),
		trialRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_trial_runs_total",
			Help: "Expired-trial batch runs by trigger and result.",
		}, []string{"trigger", "result"}),
		trialRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_trial_run_duration_seconds",
			Help:    "Duration of expired-trial batch runs.",
			Buckets: prometheus.DefBuckets,
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_events_dropped_total",
			Help: "Lifecycle events dropped because the publisher buffer was full or the broker failed.",
		}),
	}
	reg.MustRegister(
		e.activityIncr,
		e.trialTransitions,
		e.trialRuns,
		e.trialRunDuration,
		e.eventsDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return e
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Engine) Handler() http.Handler {
	if e == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (e *Engine) Registry() *prometheus.Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// ActivityIncremented counts one increment attempt.
func (e *Engine) ActivityIncremented(activityType string, ok bool) {
	if e == nil {
		return
	}
	e.activityIncr.WithLabelValues(activityType, result(ok)).Inc()
}

// TrialTransition counts a per-user outcome: transitioned, skipped or error.
func (e *Engine) TrialTransition(outcome string) {
	if e == nil {
		return
	}
	e.trialTransitions.WithLabelValues(outcome).Inc()
}

// TrialRun records a finished batch.
func (e *Engine) TrialRun(trigger string, ok bool, elapsed time.Duration) {
	if e == nil {
		return
	}
	e.trialRuns.WithLabelValues(trigger, result(ok)).Inc()
	e.trialRunDuration.Observe(elapsed.Seconds())
}

// EventDropped counts a lifecycle event that was not delivered.
func (e *Engine) EventDropped() {
	if e == nil {
		return
	}
	e.eventsDropped.Inc()
}
