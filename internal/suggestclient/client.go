// Package suggestclient calls the suggestion endpoint and retries the
// failures the server marks as transient.
package suggestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HammerMeetNail/resumebuilder/internal/logging"
	"github.com/HammerMeetNail/resumebuilder/internal/services/ai"
)

const (
	suggestPath       = "/api/ai-suggest"
	defaultMaxRetries = 3
	backoffStep       = 2 * time.Second
	maxBackoff        = 6 * time.Second
	maxErrorBody      = 64 << 10
)

// APIError is a non-2xx response from the suggestion endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
	Retryable  bool
	RetryAfter time.Duration // from the Retry-After header, zero when absent
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("suggest: HTTP %d: %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf("; retry after %s", e.RetryAfter)
	}
	return msg
}

// Temporary reports whether the request may succeed if sent again: a 429 or
// 503 the server flagged as retryable. A 429 without the flag counts as
// retryable; the server's own quota limiter sends retryable=false.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return e.Retryable
	default:
		return false
	}
}

// Backoff is the wait before retry number attempt (1-based): 2s, 4s, 6s,
// then 6s.
func Backoff(attempt int) time.Duration {
	d := backoffStep * time.Duration(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *logging.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: defaultMaxRetries,
		sleep:      sleepContext,
		logger:     logging.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Suggest posts req and returns the suggestions. Retryable failures are
// retried serially with Backoff; the last error is returned when retries run
// out. Other failures return immediately.
func (c *Client) Suggest(ctx context.Context, req ai.SuggestionRequest) ([]string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		suggestions, err := c.do(ctx, body)
		if err == nil {
			return suggestions, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Temporary() || attempt >= c.maxRetries {
			return nil, err
		}
		// The server will not recover within the backoff schedule.
		if apiErr.RetryAfter > maxBackoff {
			return nil, err
		}

		delay := Backoff(attempt + 1)
		if apiErr.RetryAfter > delay {
			delay = apiErr.RetryAfter
		}
		c.logger.Warn("Retrying suggestion request", map[string]interface{}{
			"attempt":     attempt + 1,
			"max_retries": c.maxRetries,
			"delay_ms":    delay.Milliseconds(),
			"status":      apiErr.StatusCode,
		})
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func (c *Client) do(ctx context.Context, body []byte) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+suggestPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out ai.SuggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out.Suggestions, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Retryable:  resp.StatusCode == http.StatusTooManyRequests,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error     string `json:"error"`
		Details   string `json:"details"`
		Retryable *bool  `json:"retryable"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
		if body.Retryable != nil {
			apiErr.Retryable = *body.Retryable
		}
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
