package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/voxel-terrain/internal/pool"
	"github.com/annel0/voxel-terrain/internal/streaming"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	snap *streaming.Snapshot
}

func (s *staticSource) Snapshot() *streaming.Snapshot { return s.snap }

func newTestServer(t *testing.T, src SnapshotSource, feed *ViewerFeed) *RestServer {
	t.Helper()
	rs, err := NewRestServer(Config{Terrain: src, Viewer: feed, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	return rs
}

func doRequest(rs *RestServer, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sampleSnapshot() *streaming.Snapshot {
	return &streaming.Snapshot{
		State:    streaming.StateGenerating,
		Center:   vec.Vec2{X: 16, Z: -32},
		Active:   []vec.Vec2{{X: 0, Z: -32}, {X: 16, Z: -32}},
		Pending:  7,
		InFlight: 1,
		Workers:  2,
		Pool:     pool.Stats{Capacity: 150, Live: 3, Idle: 1, Created: 3},
		Cycles:   2,
	}
}

func TestNewRestServerRequiresSource(t *testing.T) {
	_, err := NewRestServer(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	rs := newTestServer(t, &staticSource{}, nil)
	w := doRequest(rs, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestTerrainSummary(t *testing.T) {
	rs := newTestServer(t, &staticSource{snap: sampleSnapshot()}, nil)
	w := doRequest(rs, http.MethodGet, "/api/terrain", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "generating", data["state"])
	assert.Equal(t, float64(2), data["active_count"])
	assert.Equal(t, float64(7), data["pending"])
	assert.Equal(t, float64(2), data["workers_busy"])
	assert.NotContains(t, data, "viewer")
	assert.Equal(t, map[string]interface{}{"x": float64(16), "z": float64(-32)}, data["center"])

	poolData := data["pool"].(map[string]interface{})
	assert.Equal(t, float64(150), poolData["capacity"])
	assert.Equal(t, float64(3), poolData["live"])
}

func TestTerrainSummaryShowsViewer(t *testing.T) {
	feed := NewViewerFeed(mgl32.Vec3{})
	rs := newTestServer(t, &staticSource{snap: sampleSnapshot()}, feed)
	feed.Set(mgl32.Vec3{8, 20, -4})
	feed.Set(mgl32.Vec3{64, 20, -32})

	w := doRequest(rs, http.MethodGet, "/api/terrain", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	viewerData := data["viewer"].(map[string]interface{})
	assert.Equal(t, []interface{}{float64(64), float64(20), float64(-32)}, viewerData["position"])
	assert.Equal(t, float64(2), viewerData["version"])
}

func TestTerrainUnavailable(t *testing.T) {
	rs := newTestServer(t, &staticSource{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(rs, http.MethodGet, "/api/terrain", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(rs, http.MethodGet, "/api/terrain/chunks", "").Code)
}

func TestChunks(t *testing.T) {
	rs := newTestServer(t, &staticSource{snap: sampleSnapshot()}, nil)
	w := doRequest(rs, http.MethodGet, "/api/terrain/chunks", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	chunks := data["chunks"].([]interface{})
	assert.Equal(t, map[string]interface{}{"x": float64(0), "z": float64(-32)}, chunks[0])
}

func TestViewerFeedEndpoint(t *testing.T) {
	feed := NewViewerFeed(mgl32.Vec3{})
	rs := newTestServer(t, &staticSource{}, feed)

	w := doRequest(rs, http.MethodPost, "/api/viewer", `{"x": 40.5, "y": 12, "z": -3}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	pos, version := feed.Latest()
	assert.Equal(t, mgl32.Vec3{40.5, 12, -3}, pos)
	assert.Equal(t, uint64(1), version)

	w = doRequest(rs, http.MethodPost, "/api/viewer", `{"y": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, version = feed.Latest()
	assert.Equal(t, uint64(1), version)
}

func TestViewerDisabled(t *testing.T) {
	rs := newTestServer(t, &staticSource{}, nil)
	w := doRequest(rs, http.MethodPost, "/api/viewer", `{"x": 1, "z": 2}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestServerInfo(t *testing.T) {
	metrics := NewServerMetrics()
	metrics.ObserveTick(2*time.Millisecond, 5*time.Millisecond)
	metrics.ObserveTick(8*time.Millisecond, 5*time.Millisecond)

	rs, err := NewRestServer(Config{Terrain: &staticSource{}, Metrics: metrics, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)

	w := doRequest(rs, http.MethodGet, "/api/server", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "running", data["status"])
	ticks := data["ticks"].(map[string]interface{})
	assert.Equal(t, float64(2), ticks["count"])
	assert.Equal(t, float64(1), ticks["overruns"])
	assert.InDelta(t, 5.0, ticks["avg_ms"], 0.001)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	rs, err := NewRestServer(Config{Terrain: &staticSource{}, Registry: reg})
	require.NoError(t, err)

	doRequest(rs, http.MethodGet, "/health", "")
	w := doRequest(rs, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "terrain_api_http_request_duration_seconds")

	// Один реестр нельзя отдать двум серверам
	_, err = NewRestServer(Config{Terrain: &staticSource{}, Registry: reg})
	assert.Error(t, err)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "42с", formatUptime(42*time.Second))
	assert.Equal(t, "3м 5с", formatUptime(3*time.Minute+5*time.Second))
	assert.Equal(t, "2ч 0м 1с", formatUptime(2*time.Hour+time.Second))
	assert.Equal(t, "1д 1ч 0м 0с", formatUptime(25*time.Hour))
}
