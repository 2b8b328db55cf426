package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// subscribersGauge tracks open subscriptions per feed.
	subscribersGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "live_feed_subscribers",
			Help: "Number of open live feed subscriptions",
		},
		[]string{"feed"},
	)

	// snapshotsDelivered counts snapshots handed to subscribers.
	snapshotsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_feed_snapshots_delivered_total",
			Help: "Total number of snapshots delivered to live feed subscribers",
		},
		[]string{"feed"},
	)

	// reloadErrors counts reloads that failed to read from the store.
	reloadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_feed_reload_errors_total",
			Help: "Total number of failed live feed reloads",
		},
		[]string{"feed"},
	)
)
