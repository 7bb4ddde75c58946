package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 1000000},
		},
		[]string{"method", "endpoint"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	dbQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Business metrics
	inquiriesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquiries_created_total",
			Help: "Total number of inquiries created",
		},
		[]string{"source"}, // api, form, csv
	)

	inquiriesPatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiries_patched_total",
			Help: "Total number of inquiry partial updates",
		},
	)

	inquiriesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiries_deleted_total",
			Help: "Total number of inquiries deleted",
		},
	)

	importRowsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_import_rows_failed_total",
			Help: "Total number of CSV import rows rejected",
		},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"status"}, // success, failure
	)

	tokenCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_cache_total",
			Help: "Verified-token cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// PrometheusMiddleware creates a middleware that records Prometheus metrics
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		endpoint := NormalizePath(r.URL.Path)

		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, endpoint).Observe(float64(r.ContentLength))
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint, statusCode).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, endpoint).Observe(float64(wrapped.size))
	})
}

// NormalizePath maps a request path onto its route template so that
// inquiry ids do not become label values.
func NormalizePath(path string) string {
	switch path {
	case "/health", "/metrics",
		"/inquiries", "/inquiries/import", "/inquiries/form-submissions",
		"/dashboard/entries-by-month":
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/inquiries/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/inquiries/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// RecordAuthAttempt records a bearer token verification
func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordTokenCache records a verified-token cache lookup
func RecordTokenCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	tokenCacheTotal.WithLabelValues(result).Inc()
}

// RecordInquiryCreated records a new inquiry by where it came from
func RecordInquiryCreated(source string) {
	inquiriesCreatedTotal.WithLabelValues(source).Inc()
}

// RecordInquiryPatched records a successful patch
func RecordInquiryPatched() {
	inquiriesPatchedTotal.Inc()
}

// RecordInquiryDeleted records a successful delete
func RecordInquiryDeleted() {
	inquiriesDeletedTotal.Inc()
}

// RecordImportRowFailed records a CSV row that could not be imported
func RecordImportRowFailed() {
	importRowsFailedTotal.Inc()
}

// RecordRateLimited records a request rejected by the rate limiter
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	dbQueriesTotal.WithLabelValues(operation, status).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}
