package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/kolt2050/messager/internal/models"
)

// Upload sends a file to the server and returns its public URL plus an
// optional thumbnail URL. When filename is empty a random one is generated
// so the server always gets a usable name.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*models.UploadResult, error) {
	if filename == "" {
		filename = uuid.NewString()
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result models.UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
