// Package scoring is the client for the remote scoring and adaptation
// service. It submits trials and game scores, fetches adaptive content and
// reads back difficulty, risk and progress data.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexiquest/lexiquest/internal/activity"
)

// DefaultTimeout bounds a single HTTP call.
const DefaultTimeout = 30 * time.Second

// Policy selects how test items are submitted.
type Policy string

const (
	// PerItem sends one request per test item.
	PerItem Policy = "per-item"
	// Batch joins every item into a single request.
	Batch Policy = "batch"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PerItem, Batch:
		return Policy(s), nil
	case "":
		return PerItem, nil
	}
	return "", fmt.Errorf("unknown batching policy %q (want %q or %q)", s, PerItem, Batch)
}

// Client talks JSON over HTTP to the scoring service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     Policy
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithPolicy sets the test submission policy.
func WithPolicy(p Policy) Option { return func(c *Client) { c.policy = p } }

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		policy: PerItem,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Policy returns the submission policy in use.
func (c *Client) Policy() Policy { return c.policy }

// ErrorResponse is the service's error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// do sends in as JSON (nil for none) and decodes a 2xx body into out (nil
// to discard). Every failure is a *activity.ScoringError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	endpoint, _, _ := strings.Cut(path, "?")

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &activity.ScoringError{Endpoint: endpoint, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &activity.ScoringError{Endpoint: endpoint, Err: fmt.Errorf("create request: %w", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("scoring request failed", "method", method, "path", endpoint, "err", err)
		return &activity.ScoringError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("scoring request", "method", method, "path", endpoint,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		sErr := &activity.ScoringError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			sErr.Message = errResp.Error
		} else {
			sErr.Message = strings.TrimSpace(string(respBody))
		}
		return sErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &activity.ScoringError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
