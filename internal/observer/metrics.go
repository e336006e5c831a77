package observer

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Requêtes HTTP par route et statut
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrine_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"method", "route"},
	)

	// Vues enregistrées par compteur journalier (home, work, contact, other)
	PageViewsTrackedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_page_views_tracked_total",
			Help: "Total number of page views recorded, labeled by day counter.",
		},
		[]string{"counter"},
	)
	// Échecs d'écriture analytics par étape (page_view, daily, redis, pool)
	AnalyticsFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_analytics_failures_total",
			Help: "Total number of analytics write failures, labeled by stage.",
		},
		[]string{"stage"},
	)
	LeadsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_leads_submitted_total",
			Help: "Total number of contact form submissions stored.",
		},
	)
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_uploads_total",
			Help: "Total number of stored uploads, labeled by media type.",
		},
		[]string{"type"},
	)
)

// ObserveHTTP enregistre une requête terminée
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler expose les métriques au format prometheus
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
