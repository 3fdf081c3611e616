// Package websocket fans price updates out to connected dashboard clients.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/ticker"
)

// Client represents a single WebSocket client connection.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub manages WebSocket clients and broadcasts price updates to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	log        *zap.Logger
	mu         sync.Mutex
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		log:        log,
	}
}

// Run starts the hub's event loop, consuming updates from the ticker.
func (h *Hub) Run(updates <-chan ticker.PriceUpdate) {
	h.log.Info("starting websocket hub")
	go h.pump(updates)

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("websocket client registered", zap.String("addr", client.Conn.RemoteAddr().String()))

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client can't keep up; drop it.
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// pump marshals ticker updates onto the broadcast channel.
func (h *Hub) pump(updates <-chan ticker.PriceUpdate) {
	for update := range updates {
		msg, err := json.Marshal(update)
		if err != nil {
			h.log.Error("failed to marshal price update", zap.Error(err))
			continue
		}
		h.broadcast <- msg
	}
}
