package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conditional_client_requests_total",
		Help: "Total requests by response status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conditional_client_request_duration_seconds",
		Help:    "Request duration in seconds including retries",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	revalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conditional_client_revalidations_total",
		Help: "Conditional requests by outcome (not_modified, modified)",
	}, []string{"outcome"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conditional_client_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})
)
