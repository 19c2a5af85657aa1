package httpserver

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"deskbot/internal/supportchain"
)

// upgrader configures the WebSocket handshake for the debug chat.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; auth is handled at the HTTP layer.
	},
}

// wsIncoming is a message from a debug chat client.
type wsIncoming struct {
	Type    string `json:"type"` // "user_message"
	Content string `json:"content,omitempty"`
}

// wsOutgoing is a message to a debug chat client.
type wsOutgoing struct {
	Type       string   `json:"type"` // "answer", "error"
	ID         string   `json:"id,omitempty"`
	Answer     string   `json:"answer,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Category   string   `json:"category,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// handleDebugChat upgrades to WebSocket and runs questions through the
// support chain without Teams or ticketing. Used by the console client
// and for exercising prompts against a live model.
func (s *Server) handleDebugChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[debug-chat] websocket upgrade error: %v", err)
		return
	}

	go func() {
		defer conn.Close()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
				) {
					log.Printf("[debug-chat] ws read error: %v", err)
				}
				return
			}
			s.handleChatMessage(conn, raw)
		}
	}()
}

// handleChatMessage processes a single incoming WebSocket message.
func (s *Server) handleChatMessage(conn *websocket.Conn, raw []byte) {
	var msg wsIncoming
	if err := json.Unmarshal(raw, &msg); err != nil {
		sendWSError(conn, "invalid JSON: "+err.Error())
		return
	}

	switch msg.Type {
	case "user_message":
		if msg.Content == "" {
			sendWSError(conn, "content is required for user_message")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		env := s.chain.Process(ctx, msg.Content)
		cancel()

		out := wsOutgoing{
			Type:       "answer",
			ID:         uuid.NewString(),
			Answer:     env.Solution,
			Confidence: env.Confidence,
			Category:   env.Category,
			Sources:    env.Sources,
		}
		switch env.Type {
		case supportchain.EnvelopeStatusCheck:
			out.Answer = "status check for " + env.TicketRef
		case supportchain.EnvelopeCommand:
			out.Answer = "commands are handled by the Teams endpoint"
		}
		if data, err := json.Marshal(out); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}

	default:
		sendWSError(conn, "unknown message type: "+msg.Type)
	}
}

// sendWSError sends an error message to a single WebSocket client.
func sendWSError(conn *websocket.Conn, message string) {
	out := wsOutgoing{
		Type:    "error",
		Message: message,
	}
	if data, err := json.Marshal(out); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
