package openai

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

func (c *Client) CreateVectorStore(ctx context.Context, req CreateVectorStoreRequest) (string, error) {
	return c.writeVectorStore(ctx, "create vector store", "/vector_stores", LogVectorStore, req)
}

// ModifyVectorStore returns the id echoed back by the service.
func (c *Client) ModifyVectorStore(ctx context.Context, vectorStoreID string, req ModifyVectorStoreRequest) (string, error) {
	return c.writeVectorStore(ctx, "modify vector store", "/vector_stores/"+vectorStoreID, LogVectorStoreModify, req)
}

func (c *Client) writeVectorStore(ctx context.Context, op, path, category string, body interface{}) (string, error) {
	r, err := jsonRequest(op, http.MethodPost, path, category, body)
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}
	vs, err := decode[openai.VectorStore](op, data)
	if err != nil {
		return "", err
	}
	if err := requireID(op, vs.ID); err != nil {
		return "", err
	}
	return vs.ID, nil
}
