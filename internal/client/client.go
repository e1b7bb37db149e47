// Package client talks to a running proofread server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/server"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client calls the proofread HTTP API. It satisfies editor.Backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient uses a
// client with a five minute timeout; LLM backed modules are slow.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Modules lists the modules the server can run.
func (c *Client) Modules(ctx context.Context) ([]analyzer.Info, error) {
	var infos []analyzer.Info
	if err := c.do(ctx, http.MethodGet, "/api/modules", nil, &infos); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return infos, nil
}

// Process runs modules over text. An empty module list is rejected without
// contacting the server.
func (c *Client) Process(ctx context.Context, text string, modules []string) (map[string]analyzer.Result, error) {
	if len(modules) == 0 {
		return nil, analyzer.ErrNoModules
	}

	var results map[string]analyzer.Result
	req := server.ProcessRequest{Text: text, Modules: modules}
	if err := c.do(ctx, http.MethodPost, "/api/process", req, &results); err != nil {
		return nil, fmt.Errorf("process text: %w", err)
	}
	return results, nil
}

// Highlight runs modules over text and returns the server rendered overlay.
func (c *Client) Highlight(ctx context.Context, text string, modules []string) (server.HighlightResponse, error) {
	var resp server.HighlightResponse
	if len(modules) == 0 {
		return resp, analyzer.ErrNoModules
	}

	req := server.ProcessRequest{Text: text, Modules: modules}
	if err := c.do(ctx, http.MethodPost, "/api/highlight", req, &resp); err != nil {
		return resp, fmt.Errorf("highlight text: %w", err)
	}
	return resp, nil
}

// SampleText fetches the server's sample document.
func (c *Client) SampleText(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sample-text", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch sample text: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch sample text: %w", apiError(resp))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sample text: %w", err)
	}
	return string(data), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError reads the server's {"error": ...} body, falling back to the raw
// body for responses that did not come from the API.
func apiError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body server.ErrorResponse
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
