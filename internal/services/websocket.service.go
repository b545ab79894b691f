package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"timefilter/internal/expr"
	"timefilter/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MessageAuth        = "auth"
	MessageAuthSuccess = "auth_success"
	MessageAuthError   = "auth_error"
	MessageSubscribe   = "subscribe"
	MessageSubscribed  = "subscribed"
	MessageUnsubscribe = "unsubscribe"
	MessagePing        = "ping"
	MessagePong        = "pong"
	MessageHistory     = "history"
	MessageError       = "error"
	MessagePresets     = "presets"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type         string        `json:"type"`
	Timestamp    time.Time     `json:"timestamp"`
	Data         interface{}   `json:"data,omitempty"`
	Error        string        `json:"error,omitempty"`
	Token        string        `json:"token,omitempty"`        // auth messages from client
	Subscription *Subscription `json:"subscription,omitempty"` // subscribe messages from client
}

// Subscription selects the slice of history a client receives every tick
type Subscription struct {
	Period   TimeFilterPeriod `json:"period"`
	Duration string           `json:"duration"`
	Metric   string           `json:"metric,omitempty"`
}

// Validate checks that the subscription resolves to a usable time filter
func (s Subscription) Validate() error {
	filter := ConstructFilter(s.Period, s.Duration)
	if filter == nil {
		return fmt.Errorf("unknown period '%s'", s.Period)
	}
	if err := expr.Validate(filter); err != nil {
		return err
	}
	if s.Metric != "" && !slices.Contains(models.Metrics, s.Metric) {
		return fmt.Errorf("unknown metric '%s'", s.Metric)
	}
	return nil
}

// HistoryPayload is the data of a "history" message
type HistoryPayload struct {
	Subscription Subscription     `json:"subscription"`
	Range        expr.TimeRangeJS `json:"range"`
	Data         interface{}      `json:"data"`
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Close chan bool

	mu           sync.RWMutex
	subscription *Subscription
}

func NewClientConnection(id string, conn *websocket.Conn) *ClientConnection {
	return &ClientConnection{
		ID:    id,
		Conn:  conn,
		Send:  make(chan WebSocketMessage, 256),
		Close: make(chan bool),
	}
}

func (c *ClientConnection) Subscribe(sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.subscription = &sub
	c.mu.Unlock()
	return nil
}

func (c *ClientConnection) Unsubscribe() {
	c.mu.Lock()
	c.subscription = nil
	c.mu.Unlock()
}

// Subscription returns a copy of the active subscription
func (c *ClientConnection) Subscription() (Subscription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.subscription == nil {
		return Subscription{}, false
	}
	return *c.subscription, true
}

// WebSocketHub manages all connected WebSocket clients
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	interval   time.Duration
	history    *HistoryCollector
	cache      *QueryCache
	logger     *zap.Logger
	done       chan struct{}
	stopOnce   sync.Once
}

var wsHub *WebSocketHub

func NewWebSocketHub(history *HistoryCollector, cache *QueryCache, interval time.Duration, logger *zap.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		interval:   interval,
		history:    history,
		cache:      cache,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// InitWebSocketHub installs hub as the shared hub and starts its loop
func InitWebSocketHub(ctx context.Context, hub *WebSocketHub) *WebSocketHub {
	wsHub = hub
	go wsHub.run(ctx)
	return wsHub
}

// run manages the hub's event loop
func (h *WebSocketHub) run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case client := <-h.register:
			h.addClient(client)

		case clientID := <-h.unregister:
			h.removeClient(clientID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// send buffer full, drop
				}
			}
			h.mu.RUnlock()

		case <-ticker.C:
			h.pushHistory()
			h.cache.Prune()
		}
	}
}

func (h *WebSocketHub) addClient(client *ClientConnection) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client connected", zap.String("client", client.ID), zap.Int("total", total))
}

func (h *WebSocketHub) removeClient(clientID string) {
	h.mu.Lock()
	if client, exists := h.clients[clientID]; exists {
		delete(h.clients, clientID)
		close(client.Send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client disconnected", zap.String("client", clientID), zap.Int("total", total))
}

// pushHistory sends every subscribed client the history inside its resolved filter
func (h *WebSocketHub) pushHistory() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		sub, ok := client.Subscription()
		if !ok {
			continue
		}

		msg := WebSocketMessage{Type: MessageHistory, Timestamp: time.Now()}
		result, err := h.cache.Query(h.history, sub.Period, sub.Duration, sub.Metric)
		if err != nil {
			h.logger.Warn("ws history query failed", zap.String("client", client.ID), zap.Error(err))
			msg.Type = MessageError
			msg.Error = err.Error()
		} else {
			msg.Data = HistoryPayload{
				Subscription: sub,
				Range:        result.Range.ToJS(),
				Data:         result.Data,
			}
		}

		select {
		case client.Send <- msg:
		default:
		}
	}
}

// ClientCount reports the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a new client to the hub
func (h *WebSocketHub) Register(client *ClientConnection) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// Stop ends the hub loop; it is safe to call more than once
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// GetWebSocketHub returns the shared hub
func GetWebSocketHub() *WebSocketHub {
	return wsHub
}
