package zion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadMedia uploads one file and returns its media id
func (c *Client) UploadMedia(ctx context.Context, filename string, r io.Reader, sourceModule, privacyLevel string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy %s: %w", filename, err)
	}
	if err := mw.WriteField("source_module", sourceModule); err != nil {
		return "", fmt.Errorf("write source_module: %w", err)
	}
	if err := mw.WriteField("privacy_level", privacyLevel); err != nil {
		return "", fmt.Errorf("write privacy_level: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/media/upload", nil)
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(&buf)
	req.ContentLength = int64(buf.Len())
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.sendAuth(req, &resp); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("upload media: response has no id")
	}
	return resp.ID, nil
}
