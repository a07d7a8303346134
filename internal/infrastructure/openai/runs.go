package openai

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// CreateRun starts a run of an assistant on a thread and returns its id.
func (c *Client) CreateRun(ctx context.Context, threadID string, req CreateRunRequest) (string, error) {
	const op = "create run"
	if req.AssistantID == "" {
		return "", invalidRequest(op, "assistant_id is required")
	}
	r, err := jsonRequest(op, http.MethodPost, "/threads/"+threadID+"/runs", LogRun, req)
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	run, err := decode[openai.Run](op, data)
	if err != nil {
		return "", err
	}
	if err := requireID(op, run.ID); err != nil {
		return "", err
	}
	return run.ID, nil
}

func (c *Client) RetrieveRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	return c.runRequest(ctx, "retrieve run", http.MethodGet, "/threads/"+threadID+"/runs/"+runID, LogRunStatus)
}

// CancelRun asks the service to stop a run and returns its new state.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	return c.runRequest(ctx, "cancel run", http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/cancel", LogRunCancel)
}

// LatestRun returns the most recent run on a thread, or nil when it has none.
func (c *Client) LatestRun(ctx context.Context, threadID string) (*openai.Run, error) {
	const op = "list runs"
	data, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/threads/" + threadID + "/runs?limit=1", category: LogRunList})
	if err != nil {
		return nil, err
	}
	list, err := decode[openai.RunList](op, data)
	if err != nil {
		return nil, err
	}
	if len(list.Runs) == 0 {
		return nil, nil
	}
	run := list.Runs[0]
	if run.Status == "" {
		return nil, NewProtocolError(op, "run has no status", nil)
	}
	return &run, nil
}

func (c *Client) runRequest(ctx context.Context, op, method, path, category string) (*openai.Run, error) {
	data, err := c.do(ctx, request{op: op, method: method, path: path, category: category})
	if err != nil {
		return nil, err
	}
	run, err := decode[openai.Run](op, data)
	if err != nil {
		return nil, err
	}
	if run.Status == "" {
		return nil, NewProtocolError(op, "run has no status", nil)
	}
	return run, nil
}
