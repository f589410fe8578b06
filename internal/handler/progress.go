package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"toolcheck/internal/logger"
	"toolcheck/internal/progress"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressWebsocketHandler subscribes the caller to batch progress
// events.
func ProgressWebsocketHandler(hub *progress.Hub, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)

		hub.Register(connection)

		// Drain control frames until the client goes away.
		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				hub.Unregister(connection)
				break
			}
		}
	}
}
