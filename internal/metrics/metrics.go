// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Import Metrics
var (
	RowsStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRowsStaged,
			Help: HelpTextRowsStaged,
		},
	)

	StagingSessionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameStagingSessionsClosed,
			Help: HelpTextStagingSessionsClosed,
		},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameImportsTotal,
			Help: HelpTextImportsTotal,
		},
		[]string{LabelOutcome},
	)

	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameImportDuration,
			Help:    HelpTextImportDuration,
			Buckets: ImportLatencyBuckets,
		},
	)

	ImportsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameImportsInFlight,
			Help: HelpTextImportsInFlight,
		},
	)

	RowsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRowsImported,
			Help: HelpTextRowsImported,
		},
	)
)

// Inventory Metrics
var (
	ItemMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameItemMutations,
			Help: HelpTextItemMutations,
		},
		[]string{LabelMutation},
	)

	ImageListingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameImageListingCacheHits,
			Help: HelpTextImageListingCacheHits,
		},
	)

	ImageListingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameImageListingCacheMiss,
			Help: HelpTextImageListingCacheMiss,
		},
	)
)
