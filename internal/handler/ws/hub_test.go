package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBoard/internal/domain/models"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub(nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readView(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestBroadcastReachesClients(t *testing.T) {
	h, url := startHub(t)
	a, b := dial(t, url), dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 2 }, time.Second, 5*time.Millisecond)

	h.Broadcast(&models.DashboardView{Date: "20241010", SignalsToday: 3})

	for _, conn := range []*websocket.Conn{a, b} {
		m := readView(t, conn)
		assert.Equal(t, "dashboard", m.Type)
		require.NotNil(t, m.Data)
		assert.Equal(t, "20241010", m.Data.Date)
		assert.Equal(t, 3, m.Data.SignalsToday)
	}
}

func TestLateJoinerGetsLastView(t *testing.T) {
	h, url := startHub(t)
	h.Broadcast(&models.DashboardView{Date: "20241010"})

	m := readView(t, dial(t, url))
	assert.Equal(t, "20241010", m.Data.Date)
}

func TestDisconnectUnregisters(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseSendsGoingAway(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	h.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, h.Clients())
}
