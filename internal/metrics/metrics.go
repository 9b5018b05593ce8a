package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Auth
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected authentications by reason",
		},
		[]string{"reason"}, // missing|invalid|expired|role|user_not_found|deactivated|credentials
	)

	// Follow state machine
	FollowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follow_transitions_total",
			Help: "Follow/unfollow requests by outcome",
		},
		[]string{"action", "outcome"},
	)

	// Background jobs
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Scheduled job executions by result",
		},
		[]string{"job", "result"},
	)

	initOnce sync.Once
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry.  Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestLatency, AuthFailures, FollowTransitions, JobRuns)
	})
}
