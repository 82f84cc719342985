package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"go-cvassist-client/internal/models"
)

func (c *Client) CVStatus(ctx context.Context) (*models.CVStatus, error) {
	var out models.CVStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/cv/status", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCV sends r as the multipart "file" field. The backend answers with
// the stored CV record, processed=false until vectorization finishes.
func (c *Client) UploadCV(ctx context.Context, filename string, r io.Reader) (*models.CV, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read cv file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var out models.CV
	req := request{
		method:      http.MethodPost,
		path:        "/api/cv/upload",
		auth:        true,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCV(ctx context.Context) (*models.Ack, error) {
	var out models.Ack
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/api/cv/delete", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
