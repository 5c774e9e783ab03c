package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCounters(t *testing.T) {
	e := New()
	e.ActivityIncremented("offers_created", true)
	e.ActivityIncremented("offers_created", true)
	e.ActivityIncremented("invalid", false)
	e.TrialTransition("transitioned")
	e.TrialRun("schedule", true, 2*time.Second)
	e.EventDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(e.activityIncr.WithLabelValues("offers_created", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.activityIncr.WithLabelValues("invalid", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.trialTransitions.WithLabelValues("transitioned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.trialRuns.WithLabelValues("schedule", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.eventsDropped))
}

func TestNilEngineIsNoop(t *testing.T) {
	var e *Engine
	e.ActivityIncremented("offers_created", true)
	e.TrialTransition("error")
	e.TrialRun("manual", false, time.Second)
	e.EventDropped()
	assert.Nil(t, e.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	e := New()
	e.TrialTransition("skipped")

	rr := httptest.NewRecorder()
	e.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), `engine_trial_transitions_total{result="skipped"} 1`)
}
