package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusRecorder(reg)

	m.ObserveRequest("list_budgets", "success", 12*time.Millisecond)
	m.ObserveRequest("list_budgets", "success", 8*time.Millisecond)
	m.ObserveRequest("create_budget", "conflict", 5*time.Millisecond)
	m.IncrementLoad(LoadApplied)
	m.IncrementLoad(LoadStale)
	m.SetActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("list_budgets", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("create_budget", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadsTotal.WithLabelValues(LoadStale)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestNoOpRecorder(t *testing.T) {
	var r Recorder = NoOpRecorder{}
	r.ObserveRequest("x", "success", time.Second)
	r.IncrementLoad(LoadFailed)
	r.SetActiveSessions(1)
}
