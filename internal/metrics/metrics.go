// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - crawl pipeline throughput and latency per site
// - active WebSocket sessions and frame delivery
// - adapter HTTP fetches and circuit breaker state
// - translation and media packaging outcomes

var (
	// Crawl metrics
	CrawlRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_crawl_requests_total",
			Help: "Total crawl requests by site and outcome",
		},
		[]string{"site", "outcome"},
	)

	CrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trawler_crawl_duration_seconds",
			Help:    "End-to-end crawl duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"site"},
	)

	CrawlPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_crawl_pages_fetched_total",
			Help: "Pages fetched by site and result (ok, empty, error)",
		},
		[]string{"site", "result"},
	)

	CrawlPostsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_crawl_posts_emitted_total",
			Help: "Posts emitted to clients after filtering and slicing",
		},
		[]string{"site"},
	)

	CrawlPostsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_crawl_posts_rejected_total",
			Help: "Posts rejected by the filter predicate, by reason tag",
		},
		[]string{"site", "reason"},
	)

	// Session metrics
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trawler_active_sessions",
			Help: "Currently open WebSocket crawl sessions",
		},
	)

	SessionFramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_session_frames_sent_total",
			Help: "Frames sent to clients by type (progress, done, error, cancel)",
		},
		[]string{"type"},
	)

	SessionsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trawler_sessions_cancelled_total",
			Help: "Sessions terminated by client cancellation",
		},
	)

	// Adapter HTTP metrics
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_fetch_requests_total",
			Help: "Outbound adapter HTTP requests by site and status class",
		},
		[]string{"site", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trawler_fetch_duration_seconds",
			Help:    "Outbound adapter HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"site"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trawler_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Translation metrics
	TranslationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_translation_requests_total",
			Help: "Translation calls by target language and outcome",
		},
		[]string{"language", "outcome"},
	)

	// Media packaging metrics
	MediaDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trawler_media_downloads_total",
			Help: "Media file downloads by outcome (ok, skipped, failed, oversize)",
		},
		[]string{"outcome"},
	)

	MediaArchiveBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trawler_media_archive_bytes",
			Help: "Size in bytes of the most recently built media archive",
		},
	)

	MediaArchivesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trawler_media_archives_swept_total",
			Help: "Expired media archives removed by the sweeper",
		},
	)

	// HTTP API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trawler_api_request_duration_seconds",
			Help:    "REST endpoint latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trawler_api_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

// RecordCrawl records a completed crawl.
func RecordCrawl(site, outcome string, duration time.Duration) {
	CrawlRequests.WithLabelValues(site, outcome).Inc()
	CrawlDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// RecordPage records one page fetch inside a crawl.
func RecordPage(site, result string) {
	CrawlPagesFetched.WithLabelValues(site, result).Inc()
}

// RecordFetch records an outbound adapter HTTP request.
func RecordFetch(site string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode/100*100) // 200, 400, 500 classes
	}
	FetchRequests.WithLabelValues(site, status).Inc()
	FetchDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// RecordAPIRequest records a REST endpoint invocation.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight HTTP request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
