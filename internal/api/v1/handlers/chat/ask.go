package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deepgram/courier/internal/services/chat"
	"github.com/deepgram/courier/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const maxMessageBytes = 32 << 10

// Asker answers one message against a bound assistant.
type Asker interface {
	Ask(ctx context.Context, history []chat.Turn, message string) string
}

type AskRequest struct {
	Message string      `json:"message" validate:"required,max=32768"`
	History []chat.Turn `json:"history" validate:"max=50,dive"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

func HandleAsk(asker Asker, w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4*maxMessageBytes)).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	log.Info().
		Int("history_count", len(req.History)).
		Str("client_ip", r.RemoteAddr).
		Msg("Received ask request")

	answer := asker.Ask(r.Context(), req.History, req.Message)
	httpext.JsonResponse(w, http.StatusOK, AskResponse{Answer: answer})
}
