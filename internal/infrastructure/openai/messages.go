package openai

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

// AddMessage appends a user message to a thread and returns the message id.
func (c *Client) AddMessage(ctx context.Context, threadID, content string) (string, error) {
	const op = "add message"
	r, err := jsonRequest(op, http.MethodPost, "/threads/"+threadID+"/messages", LogMessageAdd,
		ThreadMessage{Role: RoleUser, Content: content})
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	m, err := decode[openai.Message](op, data)
	if err != nil {
		return "", err
	}
	if err := requireID(op, m.ID); err != nil {
		return "", err
	}
	return m.ID, nil
}

// ListMessages returns the text blocks of a thread's messages in the order the
// service lists them, newest first. A non-empty runID restricts the listing to
// messages produced by that run.
func (c *Client) ListMessages(ctx context.Context, threadID, runID string) ([]string, error) {
	const op = "list messages"
	path := "/threads/" + threadID + "/messages"
	if runID != "" {
		path += "?run_id=" + url.QueryEscape(runID)
	}
	data, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, category: LogMessages})
	if err != nil {
		return nil, err
	}
	list, err := decode[openai.MessagesList](op, data)
	if err != nil {
		return nil, err
	}
	return textBlocks(op, list.Messages)
}

func textBlocks(op string, messages []openai.Message) ([]string, error) {
	texts := []string{}
	for _, m := range messages {
		for _, block := range m.Content {
			if block.Type != "text" {
				continue
			}
			if block.Text == nil {
				return nil, NewProtocolError(op, "text block without text in message "+m.ID, nil)
			}
			texts = append(texts, block.Text.Value)
		}
	}
	return texts, nil
}
