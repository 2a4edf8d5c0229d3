package suggestclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HammerMeetNail/resumebuilder/internal/logging"
	"github.com/HammerMeetNail/resumebuilder/internal/middleware"
	"github.com/HammerMeetNail/resumebuilder/internal/services/ai"
)

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func quietLogger() *logging.Logger {
	return logging.New().SetOutput(io.Discard)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBackoff(t *testing.T) {
	want := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second, 6 * time.Second}
	for i, d := range want {
		assert.Equal(t, d, Backoff(i+1), "attempt %d", i+1)
	}
}

func TestClient_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/ai-suggest", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if n <= 3 {
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":     "AI provider rate limit exceeded. Please retry shortly.",
				"retryable": true,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"suggestions": {"Led migration to Kafka"}})
	}))
	defer srv.Close()

	sleeps := &recordedSleeps{}
	c := New(srv.URL, "tok", WithSleep(sleeps.sleep), WithLogger(quietLogger()))

	got, err := c.Suggest(context.Background(), ai.SuggestionRequest{Context: ai.ContextBulletPoint, Company: "Acme", Position: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Led migration to Kafka"}, got)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, sleeps.delays)
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":     "AI provider is overloaded. Please retry shortly.",
			"retryable": true,
		})
	}))
	defer srv.Close()

	sleeps := &recordedSleeps{}
	c := New(srv.URL, "", WithSleep(sleeps.sleep), WithLogger(quietLogger()))

	_, err := c.Suggest(context.Background(), ai.SuggestionRequest{Context: ai.ContextSkills, Position: "Engineer"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, apiErr.Retryable)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Len(t, sleeps.delays, 3)
}

func TestClient_NonRetryableReturnsImmediately(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]interface{}
	}{
		{"validation", http.StatusBadRequest, map[string]interface{}{"error": "Company and position are required for bullet point suggestions"}},
		{"not configured", http.StatusInternalServerError, map[string]interface{}{"error": "AI service is not configured"}},
		{"connectivity", http.StatusServiceUnavailable, map[string]interface{}{"error": "Could not reach AI provider"}},
		{"timeout", http.StatusRequestTimeout, map[string]interface{}{"error": "AI provider timed out"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			sleeps := &recordedSleeps{}
			c := New(srv.URL, "", WithSleep(sleeps.sleep), WithLogger(quietLogger()))

			_, err := c.Suggest(context.Background(), ai.SuggestionRequest{})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.body["error"], apiErr.Message)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
			assert.Empty(t, sleeps.delays)
		})
	}
}

func TestClient_CancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{"error": "slow down", "retryable": true})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, "", WithLogger(quietLogger()), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))

	_, err := c.Suggest(ctx, ai.SuggestionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", WithLogger(quietLogger()))
	_, err := c.Suggest(context.Background(), ai.SuggestionRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.False(t, apiErr.Temporary())
}

func TestClient_QuotaExhaustedIsNotRetried(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"suggestions": {"Go"}})
	})
	var calls int32
	limited := middleware.NewSuggestionRateLimiter(nil, 1).Limit(ok)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		limited.ServeHTTP(w, r)
	}))
	defer srv.Close()

	sleeps := &recordedSleeps{}
	c := New(srv.URL, "", WithSleep(sleeps.sleep), WithLogger(quietLogger()))

	_, err := c.Suggest(context.Background(), ai.SuggestionRequest{})
	require.NoError(t, err)

	_, err = c.Suggest(context.Background(), ai.SuggestionRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.False(t, apiErr.Temporary())
	assert.Greater(t, apiErr.RetryAfter, maxBackoff)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeps.delays)
}

func TestClient_RetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		wantCalls  int32
		wantSleeps []time.Duration
	}{
		{"shorter than backoff", "1", 2, []time.Duration{2 * time.Second}},
		{"longer than backoff step", "5", 2, []time.Duration{5 * time.Second}},
		{"beyond the schedule", "120", 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) == 1 {
					w.Header().Set("Retry-After", tt.retryAfter)
					writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{"error": "slow down", "retryable": true})
					return
				}
				writeJSON(w, http.StatusOK, map[string][]string{"suggestions": {"Go"}})
			}))
			defer srv.Close()

			sleeps := &recordedSleeps{}
			c := New(srv.URL, "", WithSleep(sleeps.sleep), WithLogger(quietLogger()))
			_, err := c.Suggest(context.Background(), ai.SuggestionRequest{})

			if tt.wantSleeps == nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "retry after 2m0s")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.Equal(t, tt.wantSleeps, sleeps.delays)
		})
	}
}

func TestClient_RateLimitWithoutFlagIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"suggestions": {"Go"}})
	}))
	defer srv.Close()

	sleeps := &recordedSleeps{}
	c := New(srv.URL, "", WithSleep(sleeps.sleep), WithLogger(quietLogger()))
	got, err := c.Suggest(context.Background(), ai.SuggestionRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeps.delays)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := map[string]time.Duration{
		"":                              0,
		"30":                            30 * time.Second,
		"-4":                            0,
		"soon":                          0,
		"Thu, 01 Jan 2026 12:01:00 GMT": time.Minute,
		"Thu, 01 Jan 2026 11:00:00 GMT": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseRetryAfter(in, now), "Retry-After %q", in)
	}
}
