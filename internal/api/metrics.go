package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments gateway calls.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	invalidations prometheus.Counter
}

// NewMetrics registers the gateway collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusevents",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API calls by operation and response code.",
		}, []string{"operation", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campusevents",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "campusevents",
			Name:      "session_invalidations_total",
			Help:      "Sessions cleared after a 401 response.",
		}),
	}
}
