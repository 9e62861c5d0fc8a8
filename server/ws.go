package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bloomlabs/chatforge/internal/common"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type wsMessage struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	UsedKnowledge bool   `json:"used_knowledge,omitempty"`
}

// handleWebSocket serves the live chat widget: each inbound message is one
// chat turn answered through the same knowledge-grounded path as the REST
// endpoint.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	logger := common.Logger()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("server: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("server: websocket read failed", "chat_id", chatID, "error", err)
			}
			return
		}

		message := strings.TrimSpace(msg.Content)
		if message == "" {
			s.sendWS(conn, wsMessage{Type: "error", Content: "message required"})
			continue
		}

		reply, usedKnowledge, err := s.chatTurn(r, chatID, message)
		if err != nil {
			s.sendWS(conn, wsMessage{Type: "error", Content: err.Error()})
			continue
		}

		s.sendWS(conn, wsMessage{
			Type:          "response",
			Content:       reply,
			UsedKnowledge: usedKnowledge,
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		common.Logger().Warn("server: websocket write failed", "error", err)
	}
}
