// Package websocket broadcasts conversion progress events to connected
// browser clients. The hub owns the client set; handlers hand accepted
// connections to it and push events through Broadcast helpers.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message type constants understood by clients.
const (
	TypeConnection         = "connection"
	TypeConversionStatus   = "conversion:status"
	TypeConversionProgress = "conversion:progress"
	TypeConversionComplete = "conversion:complete"
	TypeError              = "error"

	// Message levels
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message is the envelope sent to every client.
type Message struct {
	Type      string      `json:"type"`
	Level     string      `json:"level,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ProgressData carries per-job conversion progress.
type ProgressData struct {
	JobID      string `json:"job_id"`
	Stage      string `json:"stage"`
	LineID     string `json:"line_id,omitempty"`
	LinesSaved int    `json:"lines_saved"`
	LinesTotal int    `json:"lines_total"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	running bool
	stopped bool
}

// NewHub creates a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. Calling Start twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.running = false
			h.mu.Unlock()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered",
				slog.String("client_id", client.id),
				slog.Int("active_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client unregistered",
				slog.String("client_id", client.id),
				slog.Int("active_clients", count))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts down the hub loop and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running && !h.stopped {
		h.stopped = true
		close(h.quit)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a typed message to all connected clients.
func (h *Hub) Broadcast(msgType, level string, data interface{}) {
	msg := Message{
		Type:      msgType,
		Level:     level,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast channel full, dropping message",
			slog.String("type", msgType))
	}
}

// BroadcastProgress sends a conversion:progress event.
func (h *Hub) BroadcastProgress(data ProgressData) {
	h.Broadcast(TypeConversionProgress, LevelInfo, data)
}

// BroadcastComplete sends a conversion:complete event.
func (h *Hub) BroadcastComplete(jobID string, succeeded bool, detail interface{}) {
	level := LevelSuccess
	if !succeeded {
		level = LevelError
	}
	h.Broadcast(TypeConversionComplete, level, map[string]interface{}{
		"job_id":    jobID,
		"succeeded": succeeded,
		"detail":    detail,
	})
}
