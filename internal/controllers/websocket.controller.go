package controllers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"timefilter/internal/logging"
	"timefilter/internal/middleware"
	"timefilter/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var clientSeq atomic.Uint64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     middleware.CheckOrigin,
}

// HandleWebSocket upgrades an authenticated request and attaches it to the hub.
// The token comes from the Authorization header or the token query parameter.
func HandleWebSocket(c *gin.Context) {
	logger := logging.L()

	token := middleware.ExtractToken(c)
	if token == "" {
		logger.Warn("ws auth failed", zap.String("ip", c.ClientIP()), zap.String("reason", "missing token"))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := services.ValidateToken(token)
	if err != nil {
		logger.Warn("ws auth failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	hub := services.GetWebSocketHub()
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed not running"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := services.NewClientConnection(fmt.Sprintf("%s-%s-%d", c.ClientIP(), claims.ClientName, clientSeq.Add(1)), ws)
	hub.Register(client)

	go readPump(client, hub, logger)
	go writePump(client, logger)
}

// readPump reads messages from the WebSocket client
func readPump(client *services.ClientConnection, hub *services.WebSocketHub, logger *zap.Logger) {
	defer func() {
		close(client.Close)
		hub.Unregister(client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws read error", zap.String("client", client.ID), zap.Error(err))
			}
			return
		}

		reply, keepOpen := handleClientMessage(client, msg, logger)
		if reply != nil {
			select {
			case client.Send <- *reply:
			default:
			}
		}
		if !keepOpen {
			return
		}
	}
}

// handleClientMessage applies one client message and returns the reply, if any.
// keepOpen is false when the client asked to leave.
func handleClientMessage(client *services.ClientConnection, msg services.WebSocketMessage, logger *zap.Logger) (reply *services.WebSocketMessage, keepOpen bool) {
	now := time.Now()

	switch msg.Type {
	case services.MessageAuth:
		claims, err := services.ValidateToken(msg.Token)
		if err != nil {
			logger.Warn("ws auth message rejected", zap.String("client", client.ID), zap.Error(err))
			return &services.WebSocketMessage{Type: services.MessageAuthError, Timestamp: now, Error: "invalid token"}, true
		}
		return &services.WebSocketMessage{
			Type:      services.MessageAuthSuccess,
			Timestamp: now,
			Data:      gin.H{"client": claims.ClientName},
		}, true

	case services.MessagePing:
		return &services.WebSocketMessage{Type: services.MessagePong, Timestamp: now}, true

	case services.MessageSubscribe:
		if msg.Subscription == nil {
			return &services.WebSocketMessage{Type: services.MessageError, Timestamp: now, Error: "subscription required"}, true
		}
		if err := client.Subscribe(*msg.Subscription); err != nil {
			return &services.WebSocketMessage{Type: services.MessageError, Timestamp: now, Error: err.Error()}, true
		}
		logger.Debug("ws client subscribed", zap.String("client", client.ID), zap.Any("subscription", msg.Subscription))
		return &services.WebSocketMessage{Type: services.MessageSubscribed, Timestamp: now, Data: msg.Subscription}, true

	case services.MessageUnsubscribe:
		client.Unsubscribe()
		return nil, false

	default:
		logger.Debug("ws unknown message type", zap.String("type", msg.Type))
		return &services.WebSocketMessage{Type: services.MessageError, Timestamp: now, Error: "unknown message type"}, true
	}
}

// writePump writes messages to the WebSocket client
func writePump(client *services.ClientConnection, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn("ws write error", zap.String("client", client.ID), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Close:
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
