// Package metrics exposes Prometheus collectors for the aggregation service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Listing kinds reported per platform.
const (
	KindReal      = "real"
	KindSuggested = "suggested"
)

var (
	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobscout_listings_total",
			Help: "Total listings returned, labeled by platform and kind (real or suggested).",
		},
		[]string{"platform", "kind"},
	)

	scrapeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobscout_scrape_failures_total",
			Help: "Total scrape attempts that degraded to fallback, labeled by platform.",
		},
		[]string{"platform"},
	)

	scrapeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobscout_scrape_duration_seconds",
			Help:    "Histogram of per-source scrape latencies.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 20},
		},
		[]string{"platform"},
	)

	searchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobscout_searches_total",
			Help: "Total aggregation requests accepted.",
		},
	)

	rateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobscout_ratelimit_rejections_total",
			Help: "Total requests rejected by the sliding-window limiter.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListings records listings contributed by one platform.
func ObserveListings(platform, kind string, count int) {
	if count <= 0 {
		return
	}
	listingsTotal.WithLabelValues(platform, kind).Add(float64(count))
}

// ObserveScrape records one per-source scrape, including whether it degraded
// to fallback data.
func ObserveScrape(platform string, duration time.Duration, degraded bool) {
	scrapeDurationSeconds.WithLabelValues(platform).Observe(duration.Seconds())
	if degraded {
		scrapeFailuresTotal.WithLabelValues(platform).Inc()
	}
}

// ObserveSearch increments the accepted-search counter.
func ObserveSearch() {
	searchesTotal.Inc()
}

// ObserveRateLimitRejection increments the limiter rejection counter.
func ObserveRateLimitRejection() {
	rateLimitRejectionsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
