package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal  *prometheus.CounterVec
	chatContextItems   *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	tierFailuresTotal  *prometheus.CounterVec
	providerSwitches   *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "laa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laa",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat answers by provenance source.",
		},
		[]string{"service", "source"},
	)
	chatContextItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laa",
			Subsystem: "chat",
			Name:      "context_items",
			Help:      "Distribution of retrieved context items per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "laa",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "End-to-end chat answer duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	tierFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laa",
			Subsystem: "retrieval",
			Name:      "tier_failures_total",
			Help:      "Total degraded retrieval tiers by tier name.",
		},
		[]string{"service", "tier"},
	)
	providerSwitches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laa",
			Subsystem: "provider",
			Name:      "switches_total",
			Help:      "Total provider activation attempts by outcome.",
		},
		[]string{"service", "status"},
	)
	cacheInvalidations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "laa",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Total index cache invalidations.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatContextItems,
		chatDuration,
		tierFailuresTotal,
		providerSwitches,
		cacheInvalidations,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatRequestsTotal:  chatRequestsTotal,
		chatContextItems:   chatContextItems,
		chatDuration:       chatDuration,
		tierFailuresTotal:  tierFailuresTotal,
		providerSwitches:   providerSwitches,
		cacheInvalidations: cacheInvalidations,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/providers/") && strings.HasSuffix(path, "/activate"):
		return "/v1/providers/{provider_id}/activate"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatAnswer(service, source string, contextItems int, duration time.Duration) {
	m.chatRequestsTotal.WithLabelValues(service, source).Inc()
	m.chatContextItems.WithLabelValues(service).Observe(float64(contextItems))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordTierFailure(service, tier string) {
	m.tierFailuresTotal.WithLabelValues(service, tier).Inc()
}

func (m *HTTPServerMetrics) RecordProviderSwitch(service, status string) {
	m.providerSwitches.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordCacheInvalidation(service, reason string) {
	m.cacheInvalidations.WithLabelValues(service, reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
