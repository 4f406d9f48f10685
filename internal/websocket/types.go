package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// Session events mirror session.EventType values.
	EventTypeAnonymized      EventType = "anonymized"
	EventTypeDeanonymized    EventType = "deanonymized"
	EventTypeNamesUpdated    EventType = "names_updated"
	EventTypeDefaultsUpdated EventType = "defaults_updated"
	EventTypeSuggestions     EventType = "suggestions"

	// EventTypeRequestLog represents a request logging event
	EventTypeRequestLog EventType = "request_log"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
	// EventTypePong answers a client ping
	EventTypePong EventType = "pong"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// RequestLogEvent represents a request logging event
type RequestLogEvent struct {
	RequestID    string            `json:"request_id"`
	Method       string            `json:"method"`
	Path         string            `json:"path"`
	StatusCode   int               `json:"status_code"`
	ClientIP     string            `json:"client_ip"`
	UserAgent    string            `json:"user_agent,omitempty"`
	Duration     time.Duration     `json:"duration"`
	ResponseSize int64             `json:"response_size"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalRequests    int64  `json:"total_requests"`
	People           int    `json:"people"`
	Companies        int    `json:"companies"`
	Provider         string `json:"provider"`
	Storage          string `json:"storage"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action    string `json:"action"` // "connected", "disconnected"
	ClientID  string `json:"client_id"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType   `json:"events"`
	Filter *EventFilter `json:"filter,omitempty"`
}

// EventFilter narrows request log events.
type EventFilter struct {
	IPWhitelist   []string `json:"ip_whitelist,omitempty"`
	PathPatterns  []string `json:"path_patterns,omitempty"` // doublestar globs
	ExcludeHealth bool     `json:"exclude_health,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan Event
	ConnectedAt time.Time
	LastPing    time.Time
	IP          string
	UserAgent   string

	mu           sync.Mutex
	subscription *SubscriptionRequest
}

// Subscription returns the client's current subscription, nil for all events.
func (c *Client) Subscription() *SubscriptionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscription
}

func (c *Client) setSubscription(s *SubscriptionRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscription = s
}
