package openai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "assistants",
			Name:      "requests_total",
			Help:      "Assistants API requests by operation and outcome category.",
		},
		[]string{"op", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier",
			Subsystem: "assistants",
			Name:      "request_duration_seconds",
			Help:      "Round trip latency of assistants API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "assistants",
			Name:      "retries_total",
			Help:      "Retried assistants API requests by operation.",
		},
		[]string{"op"},
	)

	pollOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier",
			Subsystem: "runs",
			Name:      "poll_outcomes_total",
			Help:      "Run polls by final outcome.",
		},
		[]string{"outcome"},
	)
)
