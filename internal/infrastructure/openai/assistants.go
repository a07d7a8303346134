package openai

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// CreateAssistant returns the id of the new assistant.
func (c *Client) CreateAssistant(ctx context.Context, req CreateAssistantRequest) (string, error) {
	const op = "create assistant"
	if req.Model == "" {
		return "", invalidRequest(op, "model is required")
	}
	r, err := jsonRequest(op, http.MethodPost, "/assistants", LogAssistant, req)
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	a, err := decode[openai.Assistant](op, data)
	if err != nil {
		return "", err
	}
	if err := requireID(op, a.ID); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (c *Client) RetrieveAssistant(ctx context.Context, assistantID string) (*openai.Assistant, error) {
	const op = "retrieve assistant"
	data, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/assistants/" + assistantID, category: LogAssistantRetrieve})
	if err != nil {
		return nil, err
	}
	a, err := decode[openai.Assistant](op, data)
	if err != nil {
		return nil, err
	}
	if err := requireID(op, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// ModifyAssistant updates only the fields set on req. A nil error means success.
func (c *Client) ModifyAssistant(ctx context.Context, assistantID string, req ModifyAssistantRequest) error {
	const op = "modify assistant"
	r, err := jsonRequest(op, http.MethodPost, "/assistants/"+assistantID, LogAssistantUpdate, req)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, r)
	return err
}

func (c *Client) ListAssistants(ctx context.Context, req ListAssistantsRequest) (*openai.AssistantsList, error) {
	const op = "list assistants"
	data, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/assistants" + req.query(), category: LogAssistantsList})
	if err != nil {
		return nil, err
	}
	return decode[openai.AssistantsList](op, data)
}
