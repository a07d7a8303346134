// Package websocket serves the live chat socket.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/deepgram/courier/internal/connections"
	"github.com/deepgram/courier/internal/services/chat"
	"github.com/deepgram/courier/pkg/logger"
	"github.com/gorilla/websocket"
)

const maxFrameBytes = 64 << 10

// Asker answers one message against a bound assistant.
type Asker interface {
	Ask(ctx context.Context, history []chat.Turn, message string) string
}

// ChatHandler answers each text frame with the assistant and keeps the
// conversation history for the life of the connection.
type ChatHandler struct {
	asker    Asker
	manager  *connections.Manager
	upgrader websocket.Upgrader
}

func NewChatHandler(asker Asker, manager *connections.Manager) *ChatHandler {
	return &ChatHandler{
		asker:   asker,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Callers authenticate with a bearer token, not cookies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(logger.HANDLER, "Websocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	sessionID := h.manager.Add(conn)
	defer func() {
		h.manager.Remove(conn)
		conn.Close()
	}()
	logger.Info(logger.HANDLER, "Chat session %s opened from %s", sessionID, r.RemoteAddr)

	done := make(chan struct{})
	defer close(done)
	h.manager.KeepAlive(conn, done)

	timeouts := h.manager.Timeouts()
	send := func(resp AssistantResponse) error {
		resp.SessionID = sessionID
		conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
		return conn.WriteJSON(resp)
	}

	if err := send(AssistantResponse{Content: "Connected", Status: StatusConnected}); err != nil {
		return
	}

	var history []chat.Turn
	for {
		conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(logger.HANDLER, "Chat session %s closed unexpectedly: %v", sessionID, err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg UserMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = UserMessage{Content: string(data)}
		}
		msg.Content = strings.TrimSpace(msg.Content)
		if msg.Content == "" {
			if err := send(AssistantResponse{MessageID: msg.MessageID, Content: "Message is empty", Status: StatusError}); err != nil {
				break
			}
			continue
		}

		if err := send(AssistantResponse{MessageID: msg.MessageID, Status: StatusPending}); err != nil {
			break
		}

		answer := h.asker.Ask(r.Context(), history, msg.Content)
		status := StatusComplete
		if chat.Failed(answer) {
			status = StatusError
		} else {
			history = append(history,
				chat.Turn{Role: "user", Content: msg.Content},
				chat.Turn{Role: "assistant", Content: answer},
			)
		}

		if err := send(AssistantResponse{MessageID: msg.MessageID, Content: answer, Status: status}); err != nil {
			break
		}
	}
	logger.Info(logger.HANDLER, "Chat session %s closed after %d turns", sessionID, len(history)/2)
}
