package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/session"
)

func startHub(t *testing.T, cfg HubConfig) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(cfg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev map[string]interface{}
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func waitForClients(t *testing.T, hub *Hub, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.GetStats().ActiveConnections == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionEventsReachClients(t *testing.T) {
	hub, srv := startHub(t, HubConfig{BroadcastSession: true})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	hub.OnEvent(session.Event{
		Type:      session.EventAnonymized,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"placeholders": 2},
	})

	ev := readEvent(t, conn)
	assert.Equal(t, "anonymized", ev["type"])
	assert.Equal(t, float64(2), ev["data"].(map[string]interface{})["placeholders"])
}

func TestDisabledFamiliesAreDropped(t *testing.T) {
	hub, srv := startHub(t, HubConfig{BroadcastRequests: true})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	hub.OnEvent(session.Event{Type: session.EventNamesUpdated})
	hub.BroadcastEvent(Event{Type: EventTypeRequestLog, Data: RequestLogEvent{Path: "/api/names"}})

	ev := readEvent(t, conn)
	assert.Equal(t, "request_log", ev["type"])
}

func TestSubscriptionAndPing(t *testing.T) {
	hub, srv := startHub(t, HubConfig{BroadcastSession: true, BroadcastRequests: true})
	conn := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: "subscribe",
		Data: SubscriptionRequest{
			Events: []EventType{EventTypeRequestLog},
			Filter: &EventFilter{ExcludeHealth: true, PathPatterns: []string{"/api/**"}},
		},
	}))
	assert.Equal(t, "subscribed", readEvent(t, conn)["type"])

	hub.OnEvent(session.Event{Type: session.EventNamesUpdated})
	hub.BroadcastEvent(Event{Type: EventTypeRequestLog, Data: RequestLogEvent{Path: "/health"}})
	hub.BroadcastEvent(Event{Type: EventTypeRequestLog, Data: RequestLogEvent{Path: "/info"}})
	hub.BroadcastEvent(Event{Type: EventTypeRequestLog, Data: RequestLogEvent{Path: "/api/names/export"}})

	ev := readEvent(t, conn)
	assert.Equal(t, "request_log", ev["type"])
	assert.Equal(t, "/api/names/export", ev["data"].(map[string]interface{})["path"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, "pong", readEvent(t, conn)["type"])
}

func TestBasicAuth(t *testing.T) {
	_, srv := startHub(t, HubConfig{Username: "admin", Password: "s3cret"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.SetBasicAuth("admin", "s3cret")
	dial(t, srv, http.Header{"Authorization": req.Header["Authorization"]})
}

func TestConnectionEvents(t *testing.T) {
	hub, srv := startHub(t, HubConfig{BroadcastConnections: true})
	first := dial(t, srv, nil)
	waitForClients(t, hub, 1)

	second := dial(t, srv, nil)
	ev := readEvent(t, first)
	assert.Equal(t, "connection", ev["type"])
	assert.Equal(t, "connected", ev["data"].(map[string]interface{})["action"])

	second.Close()
	ev = readEvent(t, first)
	assert.Equal(t, "disconnected", ev["data"].(map[string]interface{})["action"])
	waitForClients(t, hub, 1)
}

func TestApplyEventFilter(t *testing.T) {
	filter := &EventFilter{IPWhitelist: []string{"10.0.0.1"}}
	assert.True(t, applyEventFilter(filter, Event{Data: RequestLogEvent{ClientIP: "10.0.0.1"}}))
	assert.False(t, applyEventFilter(filter, Event{Data: RequestLogEvent{ClientIP: "10.0.0.2"}}))
	assert.True(t, applyEventFilter(filter, Event{Data: map[string]interface{}{}}))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(r))
}

func TestSubscriptionJSON(t *testing.T) {
	var sub SubscriptionRequest
	require.NoError(t, json.Unmarshal([]byte(`{"events":["anonymized"],"filter":{"exclude_health":true}}`), &sub))
	assert.Equal(t, []EventType{EventTypeAnonymized}, sub.Events)
	assert.True(t, sub.Filter.ExcludeHealth)
}
