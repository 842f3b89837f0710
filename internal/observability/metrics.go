package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the application registry: HTTP request metrics and upload
// volume. It implements upload.Observer.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadBytes     *prometheus.CounterVec
	uploadFiles     *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base collectors. The default
// gatherer (runtime and job metrics) is exposed alongside it.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	uploadBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upload_bytes_total",
		Help: "Bytes accepted by the upload middlewares by asset kind.",
	}, []string{"kind"})
	uploadFiles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upload_files_total",
		Help: "Files accepted by the upload middlewares by asset kind.",
	}, []string{"kind"})
	registry.MustRegister(
		requests,
		duration,
		uploadBytes,
		uploadFiles,
	)
	gatherers := prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		uploadBytes:     uploadBytes,
		uploadFiles:     uploadFiles,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveUpload counts one stored upload of the given kind.
func (m *Metrics) ObserveUpload(kind string, bytes int64) {
	if m == nil {
		return
	}
	m.uploadFiles.WithLabelValues(kind).Inc()
	m.uploadBytes.WithLabelValues(kind).Add(float64(bytes))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
