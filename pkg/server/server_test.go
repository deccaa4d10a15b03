package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/realtime-ai/streamplayout/pkg/audio"
	"github.com/realtime-ai/streamplayout/pkg/playback"
)

type testEnv struct {
	player *playback.Player
	server *Server
	http   *httptest.Server
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := playback.DefaultConfig()
	cfg.SampleRate = 1000
	cfg.BufferDuration = time.Second
	cfg.ArmThreshold = 100 * time.Millisecond
	cfg.StrictChunks = true

	logger := zaptest.NewLogger(t)
	p, err := playback.New(cfg, logger)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(playback.NewCollector(p, "test"))

	scfg := DefaultConfig()
	if mutate != nil {
		mutate(scfg)
	}
	s := New(scfg, p, reg, logger)
	hs := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		_ = s.Stop(context.Background())
		hs.Close()
		_ = p.Destroy()
	})
	return &testEnv{player: p, server: s, http: hs}
}

func (e *testEnv) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readReply(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]any
	require.NoError(t, ws.ReadJSON(&m))
	return m
}

func TestServer_BinaryChunksReachPlayer(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.dial(t, nil)

	chunk := audio.Float32ToPCM16([]float32{0.5, 0.25, -0.5})
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, chunk))
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, chunk))

	require.Eventually(t, func() bool { return env.player.Buffered() == 6 }, 2*time.Second, 5*time.Millisecond)

	out := make([]float32, 6)
	env.player.Renderer().Render(out)
	assert.Equal(t, []float32{0.5, 0.25, -0.5, 0.5, 0.25, -0.5}, out)
}

func TestServer_Base64AudioMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.dial(t, nil)

	payload, err := json.Marshal(base64.StdEncoding.EncodeToString(audio.Float32ToPCM16([]float32{0.5})))
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Message{Type: MsgTypeAudio, Payload: payload}))

	require.Eventually(t, func() bool { return env.player.Buffered() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_RejectedChunkReportsError(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.dial(t, nil)

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	m := readReply(t, ws)
	assert.Equal(t, MsgTypeError, m["type"])
	assert.Contains(t, m["payload"], "odd length")

	// the connection stays usable
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{1, 2}))
	require.Eventually(t, func() bool { return env.player.Buffered() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_StopAndStats(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.dial(t, nil)

	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, make([]byte, 2*150)))
	require.Eventually(t, func() bool { return env.player.State() == playback.StateArmed }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgTypeStats}))
	m := readReply(t, ws)
	require.Equal(t, MsgTypeStats, m["type"])
	stats := m["payload"].(map[string]any)
	assert.Equal(t, "armed", stats["state"])
	assert.Equal(t, float64(150), stats["buffered"])

	require.NoError(t, ws.WriteJSON(Message{Type: MsgTypeStop}))
	m = readReply(t, ws)
	assert.Equal(t, MsgTypeStopped, m["type"])
	assert.Equal(t, 0, env.player.Buffered())
	assert.Equal(t, playback.StateIdle, env.player.State())
}

func TestServer_UnknownMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.dial(t, nil)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"rewind"}`)))
	m := readReply(t, ws)
	assert.Equal(t, MsgTypeError, m["type"])

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	m = readReply(t, ws)
	assert.Equal(t, "invalid message", m["payload"])
}

func TestServer_Auth(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.AuthToken = "secret" })
	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer secret")
	env.dial(t, header)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "idle", health.State)
	assert.Equal(t, 1000, health.Capacity)

	resp, err = http.Get(env.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_playout_capacity_samples 1000")
}

func TestServer_CORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodOptions, env.http.URL+"/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
