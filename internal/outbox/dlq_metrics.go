package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/activities/internal/platform/events"
)

// DLQ replay outcomes.
const (
	dlqOutcomeRequeued       = "requeued"
	dlqOutcomeRetryScheduled = "retry_scheduled"
	dlqOutcomeQuarantined    = "quarantined"
)

var (
	dlqOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "dlq",
		Name:      "replays_total",
		Help:      "Dead-lettered activity events handled by the DLQ manager, by event type and outcome (requeued, retry_scheduled, quarantined).",
	}, []string{"event_type", "outcome"})

	dlqPending = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activities",
		Subsystem: "dlq",
		Name:      "pending_events",
		Help:      "Dead-lettered activity events still waiting for a replay, by event type.",
	}, []string{"event_type"})

	dlqQuarantined = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activities",
		Subsystem: "dlq",
		Name:      "quarantined_events",
		Help:      "Activity events parked in the DLQ after exhausting their retries, by event type.",
	}, []string{"event_type"})

	dlqOldestPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activities",
		Subsystem: "dlq",
		Name:      "oldest_pending_age_seconds",
		Help:      "Age of the oldest dead-lettered activity event still waiting for a replay; 0 when none.",
	})
)

func init() {
	prometheus.MustRegister(dlqOutcomes, dlqPending, dlqQuarantined, dlqOldestPending)
}

func recordDLQOutcome(entry dlqEntry, outcome string) {
	dlqOutcomes.WithLabelValues(entry.EventType, outcome).Inc()
}

type dlqTypeCounts struct {
	pending     int
	quarantined int
}

// setDLQGauges publishes a DLQ snapshot. Known activity event types missing
// from counts are reported as zero.
func setDLQGauges(counts map[string]dlqTypeCounts, oldestPending time.Duration) {
	for _, eventType := range []string{events.TypeActivityCreated, events.TypeActivityDeleted} {
		if _, ok := counts[eventType]; !ok {
			counts[eventType] = dlqTypeCounts{}
		}
	}
	for eventType, c := range counts {
		dlqPending.WithLabelValues(eventType).Set(float64(c.pending))
		dlqQuarantined.WithLabelValues(eventType).Set(float64(c.quarantined))
	}
	if oldestPending < 0 {
		oldestPending = 0
	}
	dlqOldestPending.Set(oldestPending.Seconds())
}

// refreshGauges reads the DLQ snapshot from Postgres and publishes it.
func (m *DLQManager) refreshGauges(ctx context.Context) error {
	rows, err := m.pool.Query(ctx, `SELECT event_type,
	                                       COUNT(*) FILTER (WHERE quarantined_at IS NULL),
	                                       COUNT(*) FILTER (WHERE quarantined_at IS NOT NULL)
	                                  FROM outbox_dlq
	                              GROUP BY event_type`)
	if err != nil {
		return fmt.Errorf("count dlq entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]dlqTypeCounts)
	for rows.Next() {
		var eventType string
		var c dlqTypeCounts
		if err := rows.Scan(&eventType, &c.pending, &c.quarantined); err != nil {
			return fmt.Errorf("scan dlq counts: %w", err)
		}
		counts[eventType] = c
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("count dlq entries: %w", err)
	}

	var oldestSeconds float64
	if err := m.pool.QueryRow(ctx, `SELECT COALESCE(EXTRACT(EPOCH FROM NOW() - MIN(created_at)), 0)::float8
	                                  FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&oldestSeconds); err != nil {
		return fmt.Errorf("age of oldest dlq entry: %w", err)
	}

	setDLQGauges(counts, time.Duration(oldestSeconds*float64(time.Second)))
	return nil
}
