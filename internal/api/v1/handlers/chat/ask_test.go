package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deepgram/courier/internal/services/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAsker struct {
	mock.Mock
}

func (m *MockAsker) Ask(ctx context.Context, history []chat.Turn, message string) string {
	return m.Called(ctx, history, message).String(0)
}

func TestHandleAsk(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		setupMocks     func(*MockAsker)
		expectedAnswer string
	}{
		{
			name: "Valid request with history",
			requestBody: map[string]interface{}{
				"message": "Who teaches it?",
				"history": []map[string]string{
					{"role": "user", "content": "Is CS 330 offered in spring?"},
					{"role": "assistant", "content": "Yes."},
				},
			},
			expectedStatus: http.StatusOK,
			setupMocks: func(m *MockAsker) {
				m.On("Ask", mock.Anything, []chat.Turn{
					{Role: "user", Content: "Is CS 330 offered in spring?"},
					{Role: "assistant", Content: "Yes."},
				}, "Who teaches it?").Return("Dr. Reed.")
			},
			expectedAnswer: "Dr. Reed.",
		},
		{
			name:           "Valid request without history",
			requestBody:    map[string]interface{}{"message": "Hello"},
			expectedStatus: http.StatusOK,
			setupMocks: func(m *MockAsker) {
				m.On("Ask", mock.Anything, []chat.Turn(nil), "Hello").Return(chat.MsgPollFailed)
			},
			expectedAnswer: chat.MsgPollFailed,
		},
		{
			name:           "Invalid request - empty message",
			requestBody:    map[string]interface{}{"message": ""},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid request - unknown role",
			requestBody: map[string]interface{}{
				"message": "Hello",
				"history": []map[string]string{{"role": "system", "content": "be terse"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid request - message too long",
			requestBody:    map[string]interface{}{"message": strings.Repeat("a", maxMessageBytes+1)},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid request - malformed JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := new(MockAsker)
			if tt.setupMocks != nil {
				tt.setupMocks(asker)
			}

			var body bytes.Buffer
			if str, ok := tt.requestBody.(string); ok {
				body.WriteString(str)
			} else {
				require.NoError(t, json.NewEncoder(&body).Encode(tt.requestBody))
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/ask", &body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			HandleAsk(asker, w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp AskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.expectedAnswer, resp.Answer)
			} else {
				asker.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
			}
			asker.AssertExpectations(t)
		})
	}
}
