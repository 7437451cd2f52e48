package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, reg *prometheus.Registry, out *bytes.Buffer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pm, err := NewPrometheusMiddleware("test", reg, reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", out, logging.DEBUG)).Handler())
	r.Use(pm.Handler())
	r.GET("/ok", func(c *gin.Context) {
		id, _ := c.Get("trace_id")
		c.String(http.StatusOK, "%v", id)
	})
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	pm.RegisterMetricsEndpoint(r)
	return r
}

func TestPrometheusMiddlewareCountsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(t, reg, &bytes.Buffer{})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)

	expected := `
# HELP test_http_request_errors_total Общее число запросов, завершившихся ошибкой (4xx/5xx).
# TYPE test_http_request_errors_total counter
test_http_request_errors_total{method="GET",path="/fail",status="400"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_http_request_errors_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "test_http_request_duration_seconds"))
}

func TestPrometheusMiddlewareDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware("dup", reg, reg)
	require.NoError(t, err)
	_, err = NewPrometheusMiddleware("dup", reg, reg)
	assert.Error(t, err, "повторная регистрация должна вернуть ошибку")
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(t, reg, &bytes.Buffer{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_inflight")
	assert.Contains(t, w.Body.String(), `path="/ok"`)
}

func TestRequestLoggerAssignsTraceID(t *testing.T) {
	var out bytes.Buffer
	r := newRouter(t, prometheus.NewRegistry(), &out)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)

	traceID := w.Body.String()
	assert.Len(t, traceID, 36, "без активного span используется uuid")
	assert.Contains(t, out.String(), "trace="+traceID)
	assert.Contains(t, out.String(), "GET /ok 200")
}
