package openai

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ResourceKind is the path segment of a deletable resource.
type ResourceKind string

const (
	KindAssistants   ResourceKind = "assistants"
	KindFiles        ResourceKind = "files"
	KindThreads      ResourceKind = "threads"
	KindVectorStores ResourceKind = "vector_stores"
)

// Delete removes a resource. File deletion is sent without the beta header.
func (c *Client) Delete(ctx context.Context, kind ResourceKind, id string) error {
	_, err := c.do(ctx, request{
		op:       "delete " + string(kind),
		method:   http.MethodDelete,
		path:     "/" + string(kind) + "/" + id,
		category: LogDelete,
		noBeta:   kind == KindFiles,
	})
	return err
}

// DeleteResource is Delete for cleanup paths: failures are logged and reported
// as false, never returned.
func (c *Client) DeleteResource(ctx context.Context, kind ResourceKind, id string) bool {
	if err := c.Delete(ctx, kind, id); err != nil {
		log.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("id", id).
			Msg("Failed to delete resource")
		return false
	}
	return true
}
