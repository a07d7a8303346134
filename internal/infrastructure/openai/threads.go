package openai

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// CreateThread returns the id of a new thread seeded with req.Messages.
func (c *Client) CreateThread(ctx context.Context, req CreateThreadRequest) (string, error) {
	const op = "create thread"
	r, err := jsonRequest(op, http.MethodPost, "/threads", LogThread, req)
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	t, err := decode[openai.Thread](op, data)
	if err != nil {
		return "", err
	}
	if err := requireID(op, t.ID); err != nil {
		return "", err
	}
	return t.ID, nil
}
