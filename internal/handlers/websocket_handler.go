package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	ws "github.com/user/cryptofolio/internal/websocket"
)

var hub *ws.Hub

// InitWebsocket wires the hub used by the price stream endpoint.
func InitWebsocket(h *ws.Hub) {
	hub = h
}

// PriceStream serves the live price feed over a websocket connection.
func PriceStream(c *websocket.Conn) {
	client := &ws.Client{
		Conn: c,
		Send: make(chan []byte, 256),
	}
	hub.Register <- client

	go writePump(client)
	readPump(client)
}

// writePump forwards broadcast messages to the client until its channel
// closes or the write fails.
func writePump(client *ws.Client) {
	defer client.Conn.Close()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			hub.Unregister <- client
			return
		}
	}
}

// readPump drains the connection so close frames are processed; the price
// stream expects no client messages.
func readPump(client *ws.Client) {
	defer func() {
		hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("websocket client disconnected unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
