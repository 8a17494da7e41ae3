// Package firecrawl implements the client for the external extraction
// service. The service owns page fetching, rendering and PDF parsing;
// this package only speaks its JSON API and adapts the wire format to
// content.ExtractResult at the boundary.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/content"
)

const scrapePath = "/v1/scrape"

// Config controls the service client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the extraction service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      *RetryPolicy
	logger     *zap.Logger
}

// StatusError reports a non-success HTTP response from the service.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("extraction service returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status indicates a transient fault.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// scrapeRequest is the wire shape of a scrape call.
type scrapeRequest struct {
	URL         string       `json:"url"`
	Formats     []string     `json:"formats"`
	JSONOptions *jsonOptions `json:"jsonOptions,omitempty"`
}

type jsonOptions struct {
	Schema map[string]any `json:"schema"`
}

// scrapeResponse is the single wire shape accepted from the service.
type scrapeResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Data    *document `json:"data,omitempty"`
}

type document struct {
	Markdown string         `json:"markdown,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	JSON     map[string]any `json:"json,omitempty"`
}

// NewClient constructs a Client.
func NewClient(cfg Config, retry *RetryPolicy, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("firecrawl base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if retry == nil {
		retry = NewRetryPolicy(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		retry:      retry,
		logger:     logger,
	}, nil
}

// Extract performs one scrape call, retrying transient failures within
// the configured policy. A successful call with an absent payload
// returns (nil, nil); the normalizer turns that into a no-content
// failure.
func (c *Client) Extract(ctx context.Context, req content.ExtractRequest) (*content.ExtractResult, error) {
	payload := scrapeRequest{URL: req.URL, Formats: req.Formats}
	if req.Schema != nil {
		payload.JSONOptions = &jsonOptions{Schema: req.Schema}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape request: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := c.do(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !c.retry.ShouldRetry(err, attempt) {
			return nil, lastErr
		}
		backoff := c.retry.Backoff(attempt)
		c.logger.Warn("retrying extraction call",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (c *Client) do(ctx context.Context, body []byte) (*content.ExtractResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scrapePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call extraction service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), 256)}
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if !parsed.Success {
		reason := parsed.Error
		if reason == "" {
			reason = "service reported failure without detail"
		}
		return nil, fmt.Errorf("extraction failed: %s", reason)
	}
	if parsed.Data == nil {
		return nil, nil
	}
	return &content.ExtractResult{
		Markdown:       parsed.Data.Markdown,
		HTML:           parsed.Data.HTML,
		Metadata:       parsed.Data.Metadata,
		StructuredData: parsed.Data.JSON,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
