package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/engine"
	"github.com/char5742/floatball/internal/log"
	"github.com/char5742/floatball/internal/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *SimulationService) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Physics.Tick = 2 * time.Millisecond
	cfg.Physics.IdleGrace = 0
	cfg.Session.Container = types.Bounds{Width: 1000, Height: 2000}

	hub := NewHub(log.Nop())
	service := NewSimulationService(cfg, log.Nop(), hub)
	srv := NewServer(cfg, service, hub, log.Nop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = service.Stop()
		hub.Close()
		ts.Close()
	})
	return ts, service
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthCheck(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestInputWithoutSession(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/gesture/begin", map[string]float64{"x": 1, "y": 2})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/session/stop", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_running", body["status"])
}

func TestSessionLifecycleAndDrag(t *testing.T) {
	ts, service := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/session/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "started", body["status"])
	assert.True(t, service.IsRunning())

	_, body = doJSON(t, http.MethodPost, ts.URL+"/api/session/start", nil)
	assert.Equal(t, "already_running", body["status"])

	_, body = doJSON(t, http.MethodGet, ts.URL+"/api/session/status", nil)
	assert.Equal(t, "running", body["status"])
	assert.NotEmpty(t, body["session"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/gesture/begin", map[string]float64{"x": 10, "y": 10})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dragging", body["mode"])
	assert.Equal(t, map[string]any{"x": 0.0, "y": 0.0}, body["velocity"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/gesture/move", map[string]any{"dx": 3, "dy": 4})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/gesture/end", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, body := doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
		return body["mode"] == "settling"
	}, time.Second, 10*time.Millisecond)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/session/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stopped", body["status"])
	assert.False(t, service.IsRunning())
}

func TestSensorValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	doJSON(t, http.MethodPost, ts.URL+"/api/session/start", nil)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/sensor", map[string]any{"kind": "magnet", "x": 1, "y": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/sensor", map[string]any{"kind": "gravity", "x": 0, "y": 1})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestBoundsAndReset(t *testing.T) {
	ts, _ := newTestServer(t)
	doJSON(t, http.MethodPost, ts.URL+"/api/session/start", nil)

	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/bounds", map[string]any{
		"container": map[string]float64{"width": 600, "height": 400},
		"body":      map[string]float64{"width": 100, "height": 100},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/physics/reset", map[string]float64{"x": 0, "y": 0})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	_, body := doJSON(t, http.MethodGet, ts.URL+"/api/state", nil)
	assert.Equal(t, map[string]any{"width": 600.0, "height": 400.0}, body["bounds"])
	pos := body["position"].(map[string]any)
	assert.LessOrEqual(t, pos["x"].(float64), 500.0)
	assert.LessOrEqual(t, pos["y"].(float64), 300.0)
}

func TestUpdateConfigValidates(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/config", map[string]any{
		"Physics": map[string]any{"Friction": 2.0},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/config", map[string]any{
		"Physics": map[string]any{"ThrowCap": 900.0},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := doJSON(t, http.MethodGet, ts.URL+"/api/config", nil)
	physics := body["Physics"].(map[string]any)
	assert.Equal(t, 900.0, physics["ThrowCap"])
	assert.Equal(t, 0.98, physics["Friction"])
}

func TestSaveConfig(t *testing.T) {
	ts, _ := newTestServer(t)
	path := filepath.Join(t.TempDir(), "saved.toml")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/config/save", map[string]string{"path": path})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, path, body["path"])

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Millisecond, cfg.Physics.Tick)
}

func TestWebSocketStreamsPositions(t *testing.T) {
	ts, _ := newTestServer(t)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	doJSON(t, http.MethodPost, ts.URL+"/api/session/start", nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var p types.Point
	require.NoError(t, conn.ReadJSON(&p))
	assert.GreaterOrEqual(t, p.Y, 900)
	assert.Equal(t, 400, p.X)
}

func TestServiceRestart(t *testing.T) {
	cfg := config.DefaultConfig()
	sink := engine.NewChannelSink(1)
	service := NewSimulationService(cfg, log.Nop(), sink)

	require.NoError(t, service.Start())
	first, err := service.Session()
	require.NoError(t, err)
	require.Error(t, service.Start())

	require.NoError(t, service.Stop())
	assert.ErrorIs(t, service.Stop(), ErrNotRunning)
	_, err = service.Session()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, service.Start())
	second, err := service.Session()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	require.NoError(t, service.Stop())
}
