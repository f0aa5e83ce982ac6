// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitrend_http_requests_total",
			Help: "Total number of HTTP requests by route, method, and status",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digitrend_http_request_duration_milliseconds",
			Help:    "HTTP request duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"route"},
	)
	apiErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitrend_api_errors_total",
			Help: "Total number of API errors by code and route",
		},
		[]string{"code", "route"},
	)
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitrend_cache_lookups_total",
			Help: "Series cache lookups by group and result",
		},
		[]string{"group", "result"},
	)
	exportFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitrend_export_failures_total",
			Help: "Failed workbook, chart, or report renders",
		},
		[]string{"kind"},
	)
	upstreamRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digitrend_upstream_refresh_total",
			Help: "Upstream growth-rate refreshes by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(float64(elapsed.Microseconds()) / 1000)
}

// APIError counts an error envelope returned to a client.
func APIError(code, route string) {
	apiErrorsTotal.WithLabelValues(code, route).Inc()
}

// CacheLookup counts a memo hit or miss for a group.
func CacheLookup(group string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(group, result).Inc()
}

// ExportFailure counts a failed render of the given kind (xlsx, png, md).
func ExportFailure(kind string) {
	exportFailuresTotal.WithLabelValues(kind).Inc()
}

// UpstreamRefresh counts an upstream refresh outcome.
func UpstreamRefresh(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	upstreamRefreshTotal.WithLabelValues(outcome).Inc()
}
