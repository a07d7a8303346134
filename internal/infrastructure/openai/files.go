package openai

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
)

const PurposeAssistants = "assistants"

// UploadFile sends content as a multipart upload and returns the file id.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader, purpose string) (string, error) {
	const op = "upload file"
	if purpose == "" {
		return "", invalidRequest(op, "purpose is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", purpose); err != nil {
		return "", invalidRequest(op, err.Error())
	}
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", invalidRequest(op, err.Error())
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", NewTransportError(op, err)
	}
	if err := mw.Close(); err != nil {
		return "", invalidRequest(op, err.Error())
	}

	data, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/files",
		category:    LogFileUpload,
		payload:     buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}
	f, err := decode[openai.File](op, data)
	if err != nil {
		return "", err
	}
	if err := requireID(op, f.ID); err != nil {
		return "", err
	}
	return f.ID, nil
}

// UploadFilePath uploads the file at path.
func (c *Client) UploadFilePath(ctx context.Context, path, purpose string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", invalidRequest("upload file", err.Error())
	}
	defer f.Close()
	return c.UploadFile(ctx, path, f, purpose)
}

func (c *Client) RetrieveFile(ctx context.Context, fileID string) (*openai.File, error) {
	const op = "retrieve file"
	data, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/files/" + fileID, category: LogFileInfo})
	if err != nil {
		return nil, err
	}
	f, err := decode[openai.File](op, data)
	if err != nil {
		return nil, err
	}
	if err := requireID(op, f.ID); err != nil {
		return nil, err
	}
	return f, nil
}
