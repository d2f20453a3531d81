package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farewatch_searches_total",
		Help: "Fare searches executed, by mode.",
	}, []string{"mode"})

	SearchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farewatch_search_errors_total",
		Help: "Fare searches that failed at retrieval, by mode.",
	}, []string{"mode"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farewatch_search_duration_seconds",
		Help:    "End-to-end fare search duration, by mode.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	PrevDayLookupMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farewatch_prevday_lookup_misses_total",
		Help: "Previous-day price lookups that found no record or failed.",
	})

	AlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farewatch_fare_drop_alerts_published_total",
		Help: "Fare-drop alert events published to Kafka.",
	})
)
