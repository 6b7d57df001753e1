package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
)

// SubmitPath is appended to the endpoint base URL.
const SubmitPath = "/api/form/submit"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// HTTPClient submits applications to a remote form service.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		h.userAgent = ua
	}
}

// NewHTTPClient creates a client for endpoint. A missing scheme defaults
// to http.
func NewHTTPClient(endpoint string, timeout time.Duration, opts ...Option) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &HTTPClient{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
		userAgent: "supportform/1.0",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized endpoint.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

type submitRequest struct {
	domain.FormData
	SubmittedAt string `json:"submittedAt"`
}

// Submit posts form and decodes the service's result.
func (c *HTTPClient) Submit(ctx context.Context, form domain.FormData) (domain.SubmissionResult, error) {
	body, err := json.Marshal(submitRequest{
		FormData:    form,
		SubmittedAt: c.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SubmitPath, bytes.NewReader(body))
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("submit: %w", err)
	}

	var result domain.SubmissionResult
	if err := ParseResponse(resp, &result); err != nil {
		return domain.SubmissionResult{}, err
	}
	return result, nil
}

// ParseResponse decodes a JSON response body into target and closes it.
// Responses with status >= 400 become errors carrying the service's
// message when one is present.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Message != "" {
			if errResp.Code != "" {
				return fmt.Errorf("[%s] %s", errResp.Code, errResp.Message)
			}
			return fmt.Errorf("status %d: %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
