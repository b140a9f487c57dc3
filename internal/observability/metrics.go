// Package observability holds the Prometheus collectors shared across the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taxi24"

var (
	TripTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "trip_transitions_total", Help: "Trip state transitions by target status"},
		[]string{"status"},
	)
	TripTransitionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "trip_transition_conflicts_total", Help: "Rejected trip transitions by attempted status"},
		[]string{"status"},
	)
	InvoicesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "invoices_issued_total", Help: "Invoices created"})

	NearbyQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "nearby_queries_total", Help: "Nearby driver queries by candidate source"},
		[]string{"source"},
	)
	NearbyResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "nearby_results",
		Help:      "Drivers returned per nearby query",
		Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
	})

	EventsPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "events_publish_failures_total", Help: "Events that could not be published"},
		[]string{"type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
