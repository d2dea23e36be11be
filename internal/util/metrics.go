package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DashboardComputationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_computations_total",
		Help: "Total number of dashboards computed from the source tables",
	})

	DashboardFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_failures_total",
		Help: "Total number of failed dashboard computations",
	}, []string{"reason"})

	DashboardComputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dashboard_compute_latency_seconds",
		Help:    "Latency of loading the tables and computing a dashboard",
		Buckets: prometheus.DefBuckets,
	})

	DashboardCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_hits_total",
		Help: "Total number of dashboards served from cache",
	})

	DashboardCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_misses_total",
		Help: "Total number of dashboard cache misses",
	})

	TableRowsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "table_rows_loaded",
		Help: "Number of rows read from each source table on the last load",
	}, []string{"table"})

	MergedRowsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merged_rows",
		Help: "Number of merged rows feeding the last computed dashboard",
	})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Total number of events published",
	}, []string{"type", "status"})

	CacheRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_refreshes_total",
		Help: "Total number of cache refreshes triggered by table changes",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
