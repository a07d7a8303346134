package inbox

import (
	"context"
	"time"

	"github.com/deepgram/courier/internal/services/chat"
	"github.com/deepgram/courier/pkg/logger"
)

const teardownTimeout = 30 * time.Second

// Assistants creates and removes the per-message assistant.
type Assistants interface {
	Setup(ctx context.Context, userName string) (string, error)
	Teardown(ctx context.Context, assistantID string)
}

// Turns answers one message with an existing assistant.
type Turns interface {
	ProcessMessage(ctx context.Context, assistantID string, history []chat.Turn, message string) string
}

// AssistantResponder gives every message a fresh assistant addressed to the
// sender and deletes it once the turn is answered.
type AssistantResponder struct {
	assistants Assistants
	turns      Turns
}

func NewAssistantResponder(assistants Assistants, turns Turns) *AssistantResponder {
	return &AssistantResponder{assistants: assistants, turns: turns}
}

func (r *AssistantResponder) Respond(ctx context.Context, userName string, history []chat.Turn, message string) string {
	assistantID, err := r.assistants.Setup(ctx, userName)
	if err != nil {
		logger.Error(logger.ASSISTANT, "Failed to set up assistant for %q: %v", userName, err)
		return MsgSetupFailed
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		r.assistants.Teardown(tctx, assistantID)
	}()

	return r.turns.ProcessMessage(ctx, assistantID, history, message)
}
