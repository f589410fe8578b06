// Package progress broadcasts per-item batch events to websocket
// subscribers.
package progress

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"toolcheck/internal/classify"
	"toolcheck/internal/dto"
	"toolcheck/internal/logger"
)

// Event is one batch progress update.
type Event struct {
	Session  string          `json:"session"`
	Filename string          `json:"filename"`
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Status   classify.Status `json:"status"`
	Message  string          `json:"message,omitempty"`
}

// Hub fans batch progress events out to connected clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHub creates a Hub; call Run in its own goroutine.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

// Run dispatches registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Progress client connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Progress client disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending progress event: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register subscribes a connection to progress events.
func (h *Hub) Register(client *websocket.Conn) {
	h.register <- client
}

// Unregister removes a subscription and closes the connection.
func (h *Hub) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// NotifyItem implements service.ProgressNotifier. Events are dropped
// rather than blocking when the broadcast buffer is full.
func (h *Hub) NotifyItem(sessionDir string, index, total int, item dto.BatchItemResult) {
	event := Event{
		Session:  sessionDir,
		Filename: item.Filename,
		Index:    index,
		Total:    total,
		Status:   item.Status,
		Message:  item.Message,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error encoding progress event: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warning("Progress buffer full, dropping event for %s", item.Filename)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
