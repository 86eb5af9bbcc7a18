package server

import "github.com/prometheus/client_golang/prometheus"

var (
	queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courseassist_queries_total",
		Help: "Queries processed, by outcome.",
	}, []string{"status"})

	webSearchTriggeredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "courseassist_websearch_triggered_total",
		Help: "Queries that escalated to a live web search.",
	})

	queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "courseassist_query_duration_seconds",
		Help:    "End-to-end query processing time.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(queriesTotal, webSearchTriggeredTotal, queryDuration)
}
