package websocket

// UserMessage represents an incoming message from the user
type UserMessage struct {
	Content   string `json:"content"`
	MessageID string `json:"message_id,omitempty"`
}

// AssistantResponse represents a frame sent back to the user
type AssistantResponse struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content"`
	Status    string `json:"status"`
}

const (
	StatusConnected = "connected"
	StatusPending   = "pending"
	StatusComplete  = "complete"
	StatusError     = "error"
)
