package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timefilter/internal/models"
	"timefilter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleClientMessage(t *testing.T) {
	auth := services.InitAuthService("ws-test-secret-0123456789abcdef012345", time.Hour, zap.NewNop())
	token, err := auth.GenerateToken("dashboard")
	require.NoError(t, err)

	client := services.NewClientConnection("c1", nil)
	logger := zap.NewNop()

	tests := []struct {
		name     string
		msg      services.WebSocketMessage
		wantType string
		wantOpen bool
	}{
		{name: "ping", msg: services.WebSocketMessage{Type: services.MessagePing}, wantType: services.MessagePong, wantOpen: true},
		{name: "auth ok", msg: services.WebSocketMessage{Type: services.MessageAuth, Token: token}, wantType: services.MessageAuthSuccess, wantOpen: true},
		{name: "auth bad", msg: services.WebSocketMessage{Type: services.MessageAuth, Token: "nope"}, wantType: services.MessageAuthError, wantOpen: true},
		{name: "subscribe without body", msg: services.WebSocketMessage{Type: services.MessageSubscribe}, wantType: services.MessageError, wantOpen: true},
		{
			name:     "subscribe invalid",
			msg:      services.WebSocketMessage{Type: services.MessageSubscribe, Subscription: &services.Subscription{Period: services.PeriodCurrent, Duration: "P7D"}},
			wantType: services.MessageError,
			wantOpen: true,
		},
		{
			name:     "subscribe",
			msg:      services.WebSocketMessage{Type: services.MessageSubscribe, Subscription: &services.Subscription{Period: services.PeriodPrevious, Duration: "P1W"}},
			wantType: services.MessageSubscribed,
			wantOpen: true,
		},
		{name: "unknown", msg: services.WebSocketMessage{Type: "dance"}, wantType: services.MessageError, wantOpen: true},
		{name: "unsubscribe", msg: services.WebSocketMessage{Type: services.MessageUnsubscribe}, wantOpen: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, open := handleClientMessage(client, tt.msg, logger)
			assert.Equal(t, tt.wantOpen, open)
			if tt.wantType == "" {
				assert.Nil(t, reply)
				return
			}
			require.NotNil(t, reply)
			assert.Equal(t, tt.wantType, reply.Type)
		})
	}

	_, subscribed := client.Subscription()
	assert.False(t, subscribed, "unsubscribe clears the subscription")
}

func TestHandleWebSocket_RequiresToken(t *testing.T) {
	services.InitAuthService("ws-test-secret-0123456789abcdef012345", time.Hour, zap.NewNop())
	r := gin.New()
	r.GET("/ws", HandleWebSocket)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws?token=a.b.c", "").Code)
}

func TestHandleWebSocket_LiveFeed(t *testing.T) {
	auth := services.InitAuthService("ws-test-secret-0123456789abcdef012345", time.Hour, zap.NewNop())
	token, err := auth.GenerateToken("dashboard")
	require.NoError(t, err)

	hc := setupHistory(t, models.Snapshot{Timestamp: time.Now().Add(-time.Minute), CPU: &models.CPUStatus{UsagePercent: 33}})
	hub := services.InitWebSocketHub(t.Context(), services.NewWebSocketHub(hc, services.NewQueryCache(time.Millisecond), 10*time.Millisecond, zap.NewNop()))
	t.Cleanup(hub.Stop)

	r := gin.New()
	r.GET("/ws", HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{
		Type:         services.MessageSubscribe,
		Subscription: &services.Subscription{Period: services.PeriodLatest, Duration: "PT1H", Metric: models.MetricCPU},
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	seen := map[string]bool{}
	for !seen[services.MessageHistory] || !seen[services.MessageSubscribed] {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		msgType, _ := msg["type"].(string)
		seen[msgType] = true
		if msgType == services.MessageHistory {
			data := msg["data"].(map[string]any)
			points := data["data"].([]any)
			require.Len(t, points, 1)
			assert.Equal(t, 33.0, points[0].(map[string]any)["usage"])
		}
	}
}
