package ws

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-platformer/backend/internal/config"
	"x-platformer/backend/internal/game"
	"x-platformer/backend/internal/input"
	"x-platformer/backend/internal/level"
	"x-platformer/backend/internal/logging"
)

type harness struct {
	ticker      *game.GameTicker
	broadcaster *Broadcaster
	server      *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gt := game.NewGameTicker(config.Default(), logging.Nop())
	_, err := gt.LoadLevel(level.Layout{
		Platforms: []level.PlatformSpec{{Position: [3]float64{0, -0.5, 0}, Size: [3]float64{40, 1, 40}}},
	})
	require.NoError(t, err)

	b, err := NewBroadcaster(8, NetworkSimulation{}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(b.Close)
	gt.RegisterDefaultSystems(b)

	wsServer := NewWSServer(gt, b, logging.Nop())
	wsServer.SetPingInterval(0)
	server := httptest.NewServer(wsServer.Routes(""))
	t.Cleanup(server.Close)

	return &harness{ticker: gt, broadcaster: b, server: server}
}

// readUntil читает сообщения, пропуская другие типы
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		if decoded["type"] == msgType {
			return decoded
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// flush отправляет ping и ждет pong: все сообщения до него уже обработаны
func flush(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, ClientMessage{Type: MessageTypePing, ClientTime: 99})
	pong := readUntil(t, conn, MessageTypePong)
	assert.Equal(t, float64(99), pong["client_time"])
}

func TestWSServer_SessionLifecycle(t *testing.T) {
	h := newHarness(t)
	conn := dial(t, h.server, "/ws")

	welcome := readUntil(t, conn, MessageTypeWelcome)
	sessionID, _ := welcome["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.NotZero(t, welcome["player_id"])

	assert.Equal(t, 1, h.ticker.SessionCount())
	_, ok := h.ticker.Session(sessionID)
	assert.True(t, ok)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.ticker.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return h.broadcaster.Stats().Clients == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWSServer_InvalidMessageKeepsConnection(t *testing.T) {
	h := newHarness(t)
	conn := dial(t, h.server, "/ws")
	defer conn.Close()
	readUntil(t, conn, MessageTypeWelcome)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)))
	errMsg := readUntil(t, conn, MessageTypeError)
	assert.Contains(t, errMsg["message"], "unknown type")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	readUntil(t, conn, MessageTypeError)

	flush(t, conn)
	assert.Equal(t, 1, h.ticker.SessionCount())
}

func TestWSServer_InputReachesSampler(t *testing.T) {
	h := newHarness(t)
	conn := dial(t, h.server, "/ws")
	defer conn.Close()

	welcome := readUntil(t, conn, MessageTypeWelcome)
	session, ok := h.ticker.Session(welcome["session_id"].(string))
	require.True(t, ok)

	send(t, conn, ClientMessage{Type: MessageTypeKeyDown, Code: input.KeyW})
	send(t, conn, ClientMessage{Type: MessageTypeKeyDown, Code: "KeyQ"}) // Не привязана
	send(t, conn, ClientMessage{Type: MessageTypePointerLock, Locked: true})
	send(t, conn, ClientMessage{Type: MessageTypeMouseMove, DX: 10, DY: 0})
	flush(t, conn)

	h.ticker.Frame(20 * time.Millisecond)
	st := session.Input.State()
	assert.Equal(t, input.Vec2{X: 0, Z: -1}, st.Movement)
	assert.True(t, st.PointerLocked)
	assert.Equal(t, 10.0, st.MouseDX)

	send(t, conn, ClientMessage{Type: MessageTypeBlur})
	flush(t, conn)
	h.ticker.Frame(20 * time.Millisecond)
	assert.True(t, session.Input.State().Movement.IsZero(), "blur releases held keys")
}

func TestWSServer_FramesDelivered(t *testing.T) {
	h := newHarness(t)
	conn := dial(t, h.server, "/ws")
	defer conn.Close()

	welcome := readUntil(t, conn, MessageTypeWelcome)
	flush(t, conn) // Соединение уже зарегистрировано в рассылке
	h.ticker.Frame(20 * time.Millisecond)

	frame := readUntil(t, conn, MessageTypeFrame)
	assert.Equal(t, welcome["player_id"], frame["player_id"])
	assert.NotEmpty(t, frame["nodes"])
	assert.Contains(t, frame, "camera")

	hudMsg := readUntil(t, conn, MessageTypeHUD)
	stats, ok := hudMsg["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), stats["lives"])

	assert.Eventually(t, func() bool { return h.broadcaster.Stats().Sent >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcaster_HUDResentAfterLostFrame(t *testing.T) {
	h := newHarness(t)
	conn := dial(t, h.server, "/ws")
	defer conn.Close()

	readUntil(t, conn, MessageTypeWelcome)
	flush(t, conn)

	// Первый кадр несет изменение HUD и теряется в сети
	h.broadcaster.SetNetworkSimulation(NetworkSimulation{Enabled: true, PacketLoss: 1})
	h.ticker.Frame(20 * time.Millisecond)
	require.Eventually(t, func() bool { return h.broadcaster.Stats().Lost >= 1 }, 2*time.Second, 10*time.Millisecond)

	// Следующие кадры уже без флага изменения, но HUD клиент еще не видел
	h.broadcaster.SetNetworkSimulation(NetworkSimulation{})
	require.Eventually(t, func() bool {
		h.ticker.Frame(20 * time.Millisecond)
		return h.broadcaster.Stats().Sent >= 1
	}, 2*time.Second, 20*time.Millisecond)

	frame := readUntil(t, conn, MessageTypeFrame)
	assert.Equal(t, false, frame["hud_changed"])
	hudMsg := readUntil(t, conn, MessageTypeHUD)
	stats, ok := hudMsg["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), stats["lives"])
}

func TestBroadcaster_UnknownSessionIgnored(t *testing.T) {
	b, err := NewBroadcaster(1, NetworkSimulation{}, logging.Nop())
	require.NoError(t, err)
	defer b.Close()

	b.Render("nobody", game.Frame{})
	stats := b.Stats()
	assert.Zero(t, stats.Sent)
	assert.Zero(t, stats.Dropped)

	b.SetNetworkSimulation(Profile("wifi_good"))
	assert.True(t, b.NetworkSimulation().Enabled)
}
