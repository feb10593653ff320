package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcomes
const (
	LoadApplied = "applied"
	LoadStale   = "stale"
	LoadFailed  = "failed"
)

// Recorder receives dashboard measurements
type Recorder interface {
	// ObserveRequest records one collaborator call; outcome is "success" or an error kind
	ObserveRequest(operation, outcome string, duration time.Duration)
	// IncrementLoad records how a snapshot load ended
	IncrementLoad(outcome string)
	// SetActiveSessions records the number of live BFF sessions
	SetActiveSessions(n int)
}

// NoOpRecorder discards every measurement
type NoOpRecorder struct{}

func (NoOpRecorder) ObserveRequest(string, string, time.Duration) {}
func (NoOpRecorder) IncrementLoad(string)                         {}
func (NoOpRecorder) SetActiveSessions(int)                        {}

// PrometheusRecorder exports measurements as Prometheus collectors
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loadsTotal      *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewPrometheusRecorder registers the dashboard collectors on reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_collaborator_requests_total",
				Help: "Total number of calls made to the finance API",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_collaborator_request_duration_milliseconds",
				Help:    "Finance API call duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
			[]string{"operation"},
		),
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_snapshot_loads_total",
				Help: "Total number of snapshot loads by outcome",
			},
			[]string{"outcome"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_active_sessions",
				Help: "Current number of dashboard sessions held by the server",
			},
		),
	}
}

func (m *PrometheusRecorder) ObserveRequest(operation, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func (m *PrometheusRecorder) IncrementLoad(outcome string) {
	m.loadsTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusRecorder) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}
