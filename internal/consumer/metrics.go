package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeHandled      = "handled"
	outcomeHandlerError = "handler_error"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "consumer",
		Name:      "events_total",
		Help:      "Activity events read from Kafka by topic, event type and outcome (handled, handler_error).",
	}, []string{"topic", "event_type", "outcome"})

	malformedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "consumer",
		Name:      "malformed_events_total",
		Help:      "Records committed without handling because they are not framed activity events, by reason.",
	}, []string{"topic", "reason"})

	eventAge = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activities",
		Subsystem: "consumer",
		Name:      "event_age_seconds",
		Help:      "Time from an activity event being written to Kafka until it was handled.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"topic", "event_type"})

	lastEventGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activities",
		Subsystem: "consumer",
		Name:      "last_event_timestamp_seconds",
		Help:      "Kafka timestamp of the most recent handled activity event per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(eventsCounter, malformedCounter, eventAge, lastEventGauge)
}

func recordHandled(msg Message, now time.Time) {
	eventsCounter.WithLabelValues(msg.Topic, msg.EventType, outcomeHandled).Inc()
	if msg.Timestamp.IsZero() {
		return
	}
	lastEventGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	if age := now.Sub(msg.Timestamp); age >= 0 {
		eventAge.WithLabelValues(msg.Topic, msg.EventType).Observe(age.Seconds())
	}
}

func recordHandlerError(msg Message) {
	eventsCounter.WithLabelValues(msg.Topic, msg.EventType, outcomeHandlerError).Inc()
}

func recordMalformed(topic, reason string) {
	malformedCounter.WithLabelValues(topic, reason).Inc()
}
