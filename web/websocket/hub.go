// Package websocket pushes session and backend status changes to open
// console tabs.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/metrics"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSession MessageType = "session" // Login state of the tab's session changed
	MessageTypeBackend MessageType = "backend" // Backend API reachability changed
)

const maxMessageSize = 64 * 1024

// Message represents a WebSocket message
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
	Time    int64       `json:"time"`
}

// SessionPayload tells a tab whether its session is still logged in.
type SessionPayload struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
}

// BackendPayload reports the backend API health.
type BackendPayload struct {
	Up bool `json:"up"`
}

// Client is one open tab. SessionID ties it to the browser session it was
// opened from.
type Client struct {
	ID        string
	SessionID string
	Send      chan []byte
}

// NewClient creates a client with a buffered send queue.
func NewClient(id, sessionID string) *Client {
	return &Client{ID: id, SessionID: sessionID, Send: make(chan []byte, 16)}
}

type envelope struct {
	target *Client // nil means every client
	data   []byte
}

// Hub maintains the set of active clients and fans messages out to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan envelope
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		unregister: make(chan *Client, 32),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("WebSocket hub panic recovered:", r)
			go h.Run()
		}
	}()

	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			metrics.ActiveSockets.Set(0)
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveSockets.Set(float64(count))
			logger.Debugf("WebSocket client disconnected: %s (total: %d)", client.ID, count)

		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

func (h *Hub) deliver(env envelope) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if env.target == nil || env.target == client {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- env.data:
		default:
			logger.Debugf("WebSocket client %s send buffer full, disconnecting", client.ID)
			go h.Unregister(client)
		}
	}
}

func (h *Hub) enqueue(target *Client, messageType MessageType, payload any) {
	if h == nil {
		return
	}
	data, err := json.Marshal(Message{
		Type:    messageType,
		Payload: payload,
		Time:    time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Error("Failed to marshal WebSocket message:", err)
		return
	}
	if len(data) > maxMessageSize {
		logger.Warningf("WebSocket message too large: %d bytes, dropping", len(data))
		return
	}

	select {
	case h.broadcast <- envelope{target: target, data: data}:
	case <-time.After(100 * time.Millisecond):
		logger.Warning("WebSocket broadcast channel is full, dropping message")
	case <-h.ctx.Done():
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(messageType MessageType, payload any) {
	h.enqueue(nil, messageType, payload)
}

// SendTo sends a message to one client. Clients that already left are
// skipped.
func (h *Hub) SendTo(client *Client, messageType MessageType, payload any) {
	if client == nil {
		return
	}
	h.enqueue(client, messageType, payload)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds client to the hub. Messages sent to it after Register
// returns are delivered.
func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	metrics.ActiveSockets.Set(float64(count))
	logger.Debugf("WebSocket client connected: %s (total: %d)", client.ID, count)
}

// Unregister unregisters a client from the hub
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	h.cancel()
}
