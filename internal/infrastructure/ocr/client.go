package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/core/ports"
	"github.com/docpipe/docpipe/internal/infrastructure/resilience"
)

// Client talks to an external OCR service over HTTP. Calls are bounded by
// the client timeout and wrapped with retry + circuit breaker so a hung
// recognizer cannot stall unrelated pipeline runs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	storage    ports.ObjectStorage
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, storage ports.ObjectStorage, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		storage:    storage,
		executor:   executor,
	}
}

func (c *Client) Process(ctx context.Context, storagePath string, fileType domain.FileType) (string, error) {
	reader, err := c.storage.Open(ctx, storagePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	raw, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	request := map[string]any{
		"image":  base64.StdEncoding.EncodeToString(raw),
		"format": string(fileType),
	}

	var response struct {
		Text string `json:"text"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/recognize", request, &response, "recognize")
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "ocr.recognize", call, classifyOCRError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("ocr recognize", err)
	}
	return strings.TrimSpace(response.Text), nil
}
