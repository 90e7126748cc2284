package handler

import (
	"net/http"

	"music_charts_api/internal/common/security"
	"music_charts_api/internal/ws"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	codec *security.TokenCodec
	hub   *ws.Hub
	// Clients connect from the dashboard origin; cross-origin upgrades are
	// allowed because authentication happens via the token query parameter.
	upgrader websocket.Upgrader
}

func NewWSHandler(codec *security.TokenCodec, hub *ws.Hub) *WSHandler {
	return &WSHandler{
		codec: codec,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// LiveCharts upgrades the connection, verifies the access token carried in
// the token query parameter (closing with policy-violation 1008 on
// failure), acknowledges with a connected event, and echoes any received
// text back as an echo event.
func (h *WSHandler) LiveCharts(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	claims, err := h.codec.Decode(r.URL.Query().Get("token"))
	if err != nil || security.TokenType(claims) != security.TokenTypeAccess {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Invalid authentication token"))
		conn.Close()
		return
	}

	client := ws.NewClient(conn)
	h.hub.Add(client)
	defer h.hub.Remove(client)

	go client.WritePump()
	client.Send(ws.Event{Event: "connected", Message: "Connected to live charts"})

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType == websocket.TextMessage {
			client.Send(ws.Event{Event: "echo", Data: string(payload)})
		}
	}
}
