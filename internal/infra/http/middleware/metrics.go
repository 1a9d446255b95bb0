package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_operations_total",
			Help: "Total number of lead lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// statusRecorder remembers the first status written; handlers that never
// call WriteHeader answer 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) code() string {
	if sr.status == 0 {
		return strconv.Itoa(http.StatusOK)
	}
	return strconv.Itoa(sr.status)
}

// Metrics records request counts and latency per chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		activeConnections.Inc()
		defer activeConnections.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(seconds float64) {
			httpRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(seconds)
		}))

		next.ServeHTTP(rec, r)

		timer.ObserveDuration()
		httpRequestsTotal.WithLabelValues(r.Method, routePattern(r), rec.code()).Inc()
	})
}

// routePattern keeps lead ids out of the label set.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// LifecycleMetrics exports lifecycle outcomes as lead_operations_total.
type LifecycleMetrics struct{}

func (LifecycleMetrics) ObserveOperation(operation, outcome string) {
	leadOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
