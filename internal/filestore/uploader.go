// Package filestore uploads registrant passport photographs to the
// board's media service and returns the public URL stored on the record.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	dErrors "sebexam/pkg/domain-errors"
)

// File is one uploaded photograph.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, file File) (string, error)
}

// HTTPUploader posts files to the media service's multipart endpoint.
// Transient failures are retried; a final failure surfaces to the caller,
// who decides whether the upload is fatal (registration) or best-effort
// (profile update).
type HTTPUploader struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

func NewHTTPUploader(baseURL, apiKey string, logger *slog.Logger) *HTTPUploader {
	return &HTTPUploader{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		retries: 3,
		backoff: 500 * time.Millisecond,
		logger:  logger,
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, folder string, file File) (string, error) {
	if len(file.Data) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "empty file")
	}

	var lastErr error
	for attempt := 1; attempt <= u.retries; attempt++ {
		url, err := u.post(ctx, folder, file)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		u.logger.WarnContext(ctx, "file upload attempt failed",
			"attempt", attempt, "file", file.Name, "error", err)
		if attempt < u.retries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(u.backoff * time.Duration(attempt)):
			}
		}
	}
	return "", dErrors.Wrap(lastErr, dErrors.CodeInternal, "file upload failed")
}

func (u *HTTPUploader) post(ctx context.Context, folder string, file File) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("folder", folder); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.apiKey)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("media service returned %d: %s", resp.StatusCode, snippet)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode media service response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("media service returned no url")
	}
	return result.URL, nil
}
