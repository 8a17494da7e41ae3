// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal              *prometheus.CounterVec
	scrapeDurationSeconds     prometheus.Histogram
	contentUpsertsTotal       *prometheus.CounterVec
	scrapeJobsTotal           *prometheus.CounterVec
	rateLimitDelaySeconds     prometheus.Histogram
	wordsIngestedTotal        prometheus.Counter
	httpRequestDurationSecond *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_scrapes_total",
				Help: "Total scrape attempts, labeled by content type and outcome.",
			},
			[]string{"content_type", "outcome"},
		)

		scrapeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_scrape_duration_seconds",
				Help:    "Histogram of end-to-end scrape latencies.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		contentUpsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_content_upserts_total",
				Help: "Total content upserts, labeled by insert vs update.",
			},
			[]string{"kind"},
		)

		scrapeJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_scrape_jobs_total",
				Help: "Total scrape jobs finished, labeled by status.",
			},
			[]string{"status"},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_rate_limit_delay_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		wordsIngestedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_words_ingested_total",
				Help: "Total words counted across persisted content.",
			},
		)

		httpRequestDurationSecond = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of daemon HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records one scrape attempt outcome.
func ObserveScrape(contentType string, outcome string, duration time.Duration) {
	if contentType == "" {
		contentType = "unknown"
	}
	scrapesTotal.WithLabelValues(contentType, outcome).Inc()
	scrapeDurationSeconds.Observe(duration.Seconds())
}

// ObserveUpsert records whether an upsert inserted or updated.
func ObserveUpsert(inserted bool, wordCount int) {
	kind := "update"
	if inserted {
		kind = "insert"
	}
	contentUpsertsTotal.WithLabelValues(kind).Inc()
	if wordCount > 0 {
		wordsIngestedTotal.Add(float64(wordCount))
	}
}

// ObserveJob increments the job counter for the given terminal status.
func ObserveJob(status string) {
	scrapeJobsTotal.WithLabelValues(status).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(duration time.Duration) {
	rateLimitDelaySeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest records a daemon HTTP request latency.
func ObserveHTTPRequest(method, route string, duration time.Duration) {
	httpRequestDurationSecond.WithLabelValues(method, route).Observe(duration.Seconds())
}
