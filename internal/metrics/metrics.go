// Package metrics provides Prometheus metrics for the price matcher.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog API Metrics
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcmatch_catalog_requests_total",
			Help: "Total number of PriceCharting API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pcmatch_catalog_request_duration_seconds",
			Help:    "PriceCharting API latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	ThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcmatch_throttle_wait_seconds",
			Help:    "Time callers spent waiting on the request throttle",
			Buckets: []float64{0, 0.05, 0.1, 0.5, 1, 5, 30, 300},
		},
	)

	// Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcmatch_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss, expired)",
		},
		[]string{"result"},
	)

	CacheSweepRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcmatch_cache_sweep_removed_total",
			Help: "Expired entries removed by the periodic sweep",
		},
	)

	// Matching Metrics
	MatchSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcmatch_searches_total",
			Help: "Card price searches by kind (card, name) and result (matched, no_match, error)",
		},
		[]string{"kind", "result"},
	)

	MatchTopScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcmatch_top_score",
			Help:    "Confidence score of the best ranked candidate",
			Buckets: []float64{20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)
