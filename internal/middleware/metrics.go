package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics. All are registered in the default registry and
// exposed via the /metrics endpoint.

var (
	// httpRequestsTotal counts all HTTP requests by method, path, and status.
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request processing time.
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// loginAttemptsTotal counts login attempts by result
	// (success, invalid_credentials, blocked).
	loginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// eventsRecordedTotal counts analytics events accepted through the
	// public tracking endpoint, by event type.
	eventsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_recorded_total",
			Help: "Total number of analytics events recorded",
		},
		[]string{"event_type"},
	)

	// redirectHitsTotal counts redirects served by the gate, by source path.
	redirectHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_hits_total",
			Help: "Total number of redirect rules served",
		},
		[]string{"source_path"},
	)

	// scrapesTotal counts scraper runs by result (success, bad_url, upstream_error).
	scrapesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "Total number of scraper runs",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(loginAttemptsTotal)
	prometheus.MustRegister(eventsRecordedTotal)
	prometheus.MustRegister(redirectHitsTotal)
	prometheus.MustRegister(scrapesTotal)
}

// Metrics creates middleware that records request count and duration for
// every request passing through. The response writer is wrapped to capture
// the status code.
//
// Example Prometheus queries:
//
//	# Request rate by endpoint
//	rate(http_requests_total[5m])
//
//	# P95 latency
//	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.Status())

			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the Prometheus metrics HTTP handler for the
// /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// IncrementLoginAttempts records a login attempt outcome.
//
// Example:
//
//	middleware.IncrementLoginAttempts("invalid_credentials")
func IncrementLoginAttempts(result string) {
	loginAttemptsTotal.WithLabelValues(result).Inc()
}

// IncrementEventsRecorded records an accepted analytics event.
func IncrementEventsRecorded(eventType string) {
	eventsRecordedTotal.WithLabelValues(eventType).Inc()
}

// IncrementRedirectHits records a redirect served by the gate.
func IncrementRedirectHits(sourcePath string) {
	redirectHitsTotal.WithLabelValues(sourcePath).Inc()
}

// IncrementScrapes records a scraper run outcome.
func IncrementScrapes(result string) {
	scrapesTotal.WithLabelValues(result).Inc()
}
