// Package observability holds the activities API's domain-level metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activities",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted.",
	})
	activityDeletedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activities",
		Subsystem: "persistence",
		Name:      "last_activity_deleted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity deletion.",
	})
	mutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "domain",
		Name:      "mutations_total",
		Help:      "Number of committed activity mutations by operation.",
	}, []string{"op"})
	replayCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "domain",
		Name:      "idempotent_replays_total",
		Help:      "Number of creates answered from an earlier request with the same idempotency key.",
	})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, activityDeletedGauge, mutationCounter, replayCounter)
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	mutationCounter.WithLabelValues("create").Inc()
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordActivityDeleted updates the deletion watermark gauge.
func RecordActivityDeleted(ts time.Time) {
	mutationCounter.WithLabelValues("delete").Inc()
	if ts.IsZero() {
		return
	}
	activityDeletedGauge.Set(float64(ts.Unix()))
}

// RecordIdempotentReplay counts a replayed create.
func RecordIdempotentReplay() {
	replayCounter.Inc()
}
