package loggen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// HTTPClient talks to the dpsmeter API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for baseURL with a request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ViewSummary is the part of a view snapshot the generator reads.
type ViewSummary struct {
	State struct {
		Target string `json:"target"`
	} `json:"state"`
	Targets []string `json:"targets"`
	Summary struct {
		TotalDamage int64 `json:"total_damage"`
		Hits        int   `json:"hits"`
	} `json:"summary"`
}

// Health checks GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	return expect(resp, http.StatusOK, nil)
}

// Upload posts f as one multipart file part.
func (c *HTTPClient) Upload(ctx context.Context, f File) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return fmt.Errorf("multipart part: %w", err)
	}
	if _, err := io.WriteString(part, strings.Join(f.Lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("multipart write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("multipart close: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/files", mw.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	return expect(resp, http.StatusCreated, nil)
}

// Action applies one view action and returns the resulting snapshot.
func (c *HTTPClient) Action(ctx context.Context, action map[string]any) (ViewSummary, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return ViewSummary{}, fmt.Errorf("marshal action: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/actions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return ViewSummary{}, err
	}
	var v ViewSummary
	return v, expect(resp, http.StatusOK, &v)
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// expect checks the status, decodes into out when non-nil and closes the body.
func expect(resp *http.Response, status int, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != status {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrServer, resp.Request.Method, resp.Request.URL.Path,
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
