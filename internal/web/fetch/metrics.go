package fetch

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "web_cache",
		Name:      "requests_total",
		Help:      "Query cache reads by resource key and result (hit, stale, miss).",
	}, []string{"key", "result"})

	refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "web_cache",
		Name:      "refreshes_total",
		Help:      "Background refreshes by resource key and outcome.",
	}, []string{"key", "outcome"})

	refreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activities",
		Subsystem: "web_cache",
		Name:      "refresh_duration_seconds",
		Help:      "Time spent fetching a resource from the API.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"key"})

	invalidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "web_cache",
		Name:      "invalidations_total",
		Help:      "Resource keys marked stale.",
	}, []string{"key"})

	mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities",
		Subsystem: "web_mutation",
		Name:      "calls_total",
		Help:      "Mutations by name and outcome (success, error, rejected).",
	}, []string{"mutation", "outcome"})
)

func init() {
	prometheus.MustRegister(cacheRequests, refreshes, refreshDuration, invalidations, mutations)
}
