package websocket

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/session"
)

// HubConfig contains configuration for the WebSocket hub
type HubConfig struct {
	BroadcastSession     bool
	BroadcastRequests    bool
	BroadcastSystem      bool
	BroadcastConnections bool

	// Basic auth is required when Username is set.
	Username string
	Password string

	AllowedOrigins  []string
	MaxConnections  int
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageSize  int64
}

func (c *HubConfig) setDefaults() {
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 1024
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 1024
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	// pings must go out before the peer's read deadline expires
	if c.PingInterval <= 0 || c.PingInterval >= c.PongTimeout {
		c.PingInterval = (c.PongTimeout * 9) / 10
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512
	}
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound events waiting to be fanned out
	broadcast chan Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	config   HubConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu    sync.RWMutex
	stats HubStats

	nextID uint64
}

// HubStats tracks WebSocket hub statistics
type HubStats struct {
	TotalConnections   int64     `json:"total_connections"`
	ActiveConnections  int64     `json:"active_connections"`
	TotalMessages      int64     `json:"total_messages"`
	TotalBroadcasts    int64     `json:"total_broadcasts"`
	LastConnectionTime time.Time `json:"last_connection_time"`
	LastDisconnectTime time.Time `json:"last_disconnect_time"`
	LastBroadcastTime  time.Time `json:"last_broadcast_time"`
}

// NewHub creates a new WebSocket hub
func NewHub(config HubConfig, logger *zap.Logger) *Hub {
	config.setDefaults()
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		config:     config,
		logger:     logger.With(zap.String("component", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run handles client registration, unregistration and broadcasting until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket hub")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event, nil)
		}
	}
}

// registerClient registers a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ActiveConnections++
	h.stats.LastConnectionTime = time.Now()
	active := h.stats.ActiveConnections
	h.mu.Unlock()

	h.logger.Info("Client connected",
		zap.String("client_id", client.ID),
		zap.String("client_ip", client.IP),
		zap.Int64("active_connections", active),
	)

	if h.config.BroadcastConnections {
		h.broadcastEvent(Event{
			Type:      EventTypeConnection,
			Timestamp: time.Now(),
			Data: ConnectionEvent{
				Action:    "connected",
				ClientID:  client.ID,
				ClientIP:  client.IP,
				UserAgent: client.UserAgent,
				Message:   fmt.Sprintf("Client %s connected", client.ID),
			},
		}, client)
	}
}

// unregisterClient unregisters a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		h.drop(client)
		h.stats.LastDisconnectTime = time.Now()
	}
	active := h.stats.ActiveConnections
	h.mu.Unlock()

	if !ok {
		return
	}

	h.logger.Info("Client disconnected",
		zap.String("client_id", client.ID),
		zap.String("client_ip", client.IP),
		zap.Int64("active_connections", active),
	)

	if h.config.BroadcastConnections {
		h.broadcastEvent(Event{
			Type:      EventTypeConnection,
			Timestamp: time.Now(),
			Data: ConnectionEvent{
				Action:    "disconnected",
				ClientID:  client.ID,
				ClientIP:  client.IP,
				UserAgent: client.UserAgent,
				Message:   fmt.Sprintf("Client %s disconnected", client.ID),
			},
		}, nil)
	}
}

// drop removes client; the caller holds h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.stats.ActiveConnections--
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.drop(client)
	}
}

// broadcastEvent delivers event to every subscribed client except exclude.
// Clients that can't keep up are disconnected.
func (h *Hub) broadcastEvent(event Event, exclude *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.TotalBroadcasts++
	h.stats.LastBroadcastTime = time.Now()

	for client := range h.clients {
		if client == exclude || !h.shouldSendToClient(client, event) {
			continue
		}
		select {
		case client.Send <- event:
			h.stats.TotalMessages++
		default:
			h.logger.Warn("Client send channel full, closing connection",
				zap.String("client_id", client.ID),
			)
			h.drop(client)
		}
	}
}

// shouldSendToClient determines if an event should be sent to a specific client based on their subscription
func (h *Hub) shouldSendToClient(client *Client, event Event) bool {
	sub := client.Subscription()
	if sub == nil {
		return true
	}

	subscribed := false
	for _, eventType := range sub.Events {
		if eventType == event.Type {
			subscribed = true
			break
		}
	}
	if !subscribed {
		return false
	}

	if sub.Filter != nil {
		return applyEventFilter(sub.Filter, event)
	}
	return true
}

// applyEventFilter only narrows request logs; other events always pass.
func applyEventFilter(filter *EventFilter, event Event) bool {
	rl, ok := event.Data.(RequestLogEvent)
	if !ok {
		return true
	}

	if filter.ExcludeHealth && rl.Path == "/health" {
		return false
	}

	if len(filter.IPWhitelist) > 0 {
		allowed := false
		for _, ip := range filter.IPWhitelist {
			if ip == rl.ClientIP {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if len(filter.PathPatterns) > 0 {
		path := strings.TrimPrefix(rl.Path, "/")
		for _, pattern := range filter.PathPatterns {
			if ok, _ := doublestar.Match(strings.TrimPrefix(pattern, "/"), path); ok {
				return true
			}
		}
		return false
	}
	return true
}

// BroadcastEvent queues an event for all connected clients if its family is
// enabled in the config.
func (h *Hub) BroadcastEvent(event Event) {
	if !h.shouldBroadcastEvent(event.Type) {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event",
			zap.String("event_type", string(event.Type)),
		)
	}
}

// OnEvent forwards session events to the dashboard.
func (h *Hub) OnEvent(e session.Event) {
	h.BroadcastEvent(Event{Type: EventType(e.Type), Timestamp: e.Timestamp, Data: e.Data})
}

// shouldBroadcastEvent checks if an event type should be broadcast based on configuration
func (h *Hub) shouldBroadcastEvent(eventType EventType) bool {
	switch eventType {
	case EventTypeAnonymized, EventTypeDeanonymized, EventTypeNamesUpdated,
		EventTypeDefaultsUpdated, EventTypeSuggestions:
		return h.config.BroadcastSession
	case EventTypeRequestLog:
		return h.config.BroadcastRequests
	case EventTypeSystemStatus:
		return h.config.BroadcastSystem
	case EventTypeConnection:
		return h.config.BroadcastConnections
	default:
		return false
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (h *Hub) authorized(r *http.Request) bool {
	if h.config.Username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.config.Password)) == 1
	return userOK && passOK
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="sentinel"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if limit := h.config.MaxConnections; limit > 0 && h.GetStats().ActiveConnections >= int64(limit) {
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          h.generateClientID(),
		Conn:        conn,
		Send:        make(chan Event, 256),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
		IP:          ClientIP(r),
		UserAgent:   r.UserAgent(),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.handleClientWrite(client)
	go h.handleClientRead(client)
}

// handleClientWrite handles writing messages to the client
func (h *Hub) handleClientWrite(client *Client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(event); err != nil {
				h.logger.Error("Failed to write WebSocket message",
					zap.String("client_id", client.ID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientRead handles reading messages from the client
func (h *Hub) handleClientRead(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.Conn.Close()
	}()

	conn := client.Conn
	conn.SetReadLimit(h.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		client.LastPing = time.Now()
		conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
		return nil
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error",
					zap.String("client_id", client.ID),
					zap.Error(err),
				)
			}
			return
		}
		h.handleClientMessage(client, msg)
	}
}

// handleClientMessage handles messages received from clients
func (h *Hub) handleClientMessage(client *Client, msg ClientMessage) {
	switch msg.Type {
	case "subscribe":
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return
		}
		var subscription SubscriptionRequest
		if err := json.Unmarshal(raw, &subscription); err != nil {
			h.logger.Debug("Ignoring malformed subscription", zap.String("client_id", client.ID), zap.Error(err))
			return
		}
		client.setSubscription(&subscription)
		h.logger.Info("Client subscription updated",
			zap.String("client_id", client.ID),
			zap.Any("subscription", subscription),
		)
		h.reply(client, Event{Type: "subscribed", Timestamp: time.Now(), Data: subscription})

	case "unsubscribe":
		client.setSubscription(nil)

	case "ping":
		h.reply(client, Event{Type: EventTypePong, Timestamp: time.Now(), Data: map[string]string{"message": "pong"}})
	}
}

// reply sends directly to one client. The hub lock keeps Send open while we
// write to it.
func (h *Hub) reply(client *Client, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.Send <- event:
	default:
	}
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := h.stats
	stats.ActiveConnections = int64(len(h.clients))
	return stats
}

func (h *Hub) generateClientID() string {
	return fmt.Sprintf("client_%d_%d", time.Now().UnixNano(), atomic.AddUint64(&h.nextID, 1))
}

// ClientIP extracts the client IP from the request, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
