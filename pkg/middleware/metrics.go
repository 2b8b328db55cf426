package middleware

import (
	"net/http"
	"strconv"
	"time"

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
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, excluding event streams",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
		[]string{"service"},
	)

	httpStreamsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_streams_open",
			Help: "Current number of open event streams",
		},
		[]string{"service", "path"},
	)
)

// PrometheusMetrics records request counts, latencies and open streams.
// Paths are labelled with the chi route pattern to bound cardinality.
func PrometheusMetrics(serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			inFlight := httpRequestsInFlight.WithLabelValues(serviceName)
			inFlight.Inc()
			defer inFlight.Dec()

			rec := newStatusRecorder(&streamCounter{ResponseWriter: w, service: serviceName, r: r})
			next.ServeHTTP(rec, r)
			if sc, ok := rec.ResponseWriter.(*streamCounter); ok {
				sc.close()
			}

			route := routePattern(r)
			status := strconv.Itoa(rec.status)
			httpRequestsTotal.WithLabelValues(serviceName, r.Method, route, status).Inc()
			if !rec.streaming() {
				httpRequestDuration.WithLabelValues(serviceName, r.Method, route, status).
					Observe(time.Since(start).Seconds())
			}
		})
	}
}

// streamCounter bumps the open-stream gauge on the first flush of an event
// stream.
type streamCounter struct {
	http.ResponseWriter
	service string
	r       *http.Request
	gauge   prometheus.Gauge
}

func (s *streamCounter) Flush() {
	if s.gauge == nil && isEventStream(s.Header()) {
		s.gauge = httpStreamsOpen.WithLabelValues(s.service, routePattern(s.r))
		s.gauge.Inc()
	}
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *streamCounter) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *streamCounter) close() {
	if s.gauge != nil {
		s.gauge.Dec()
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}
