package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consumer outcomes.
const (
	outcomeProcessed    = "processed"
	outcomeFailed       = "failed"
	outcomeDeadLettered = "dead_lettered"
)

var (
	consumedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookreview",
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Events read from the bus by outcome",
		},
		[]string{"topic", "outcome"},
	)

	handleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookreview",
			Subsystem: "events",
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling one event including retries",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"topic"},
	)

	duplicateEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookreview",
			Subsystem: "events",
			Name:      "duplicates_skipped_total",
			Help:      "Redelivered events skipped by the idempotency store",
		},
		[]string{"event_type"},
	)

	publishedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookreview",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events written to the bus by result",
		},
		[]string{"topic", "result"},
	)
)
