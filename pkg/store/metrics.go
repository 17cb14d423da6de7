package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations tracks store calls by backend and operation.
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_store_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"backend", "operation"}, // "memory"|"redis", "get"|"list"|"put"|"delete"
	)

	// Errors tracks failed store calls. ErrNotFound is not counted.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_store_errors_total",
			Help: "Total number of document store errors",
		},
		[]string{"backend", "operation"},
	)
)
