package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalog3d/catalog/internal/upload"
)

var _ upload.Observer = (*Metrics)(nil)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/products/{id}")

	req := httptest.NewRequest(http.MethodGet, "/products/p1", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `catalog_http_requests_total{code="418",route="/products/{id}"} 1`)
	assert.Contains(t, body, `catalog_http_request_duration_seconds_bucket{route="/products/{id}"`)
}

func TestObserveUpload(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpload("model", 1024)
	metrics.ObserveUpload("model", 1024)
	metrics.ObserveUpload("image", 10)

	body := scrape(t, metrics)
	assert.Contains(t, body, `catalog_upload_bytes_total{kind="model"} 2048`)
	assert.Contains(t, body, `catalog_upload_files_total{kind="image"} 1`)

	var nilMetrics *Metrics
	nilMetrics.ObserveUpload("model", 1)
}
