package negotiate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Responses tracks negotiated responses by status code.
	Responses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_responses_total",
			Help: "Total number of negotiated responses by status",
		},
		[]string{"status"}, // "200", "304"
	)

	// ResponseBytes tracks serialized body sizes of 200 responses.
	ResponseBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conditional_response_bytes",
			Help:    "Size of serialized response bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
	)

	// SerializationErrors tracks failures of the injected serializer.
	SerializationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conditional_serialization_errors_total",
			Help: "Total number of serializer failures",
		},
	)
)
