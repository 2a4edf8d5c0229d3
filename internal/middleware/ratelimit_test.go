package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HammerMeetNail/resumebuilder/internal/handlers"
	"github.com/HammerMeetNail/resumebuilder/internal/models"
	"github.com/HammerMeetNail/resumebuilder/internal/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_RedisWindow(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	limiter := NewRateLimiter(client, 2, time.Minute, "test", GetClientIP)
	handler := limiter.Limit(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if i == 2 {
			assert.NotEmpty(t, rr.Header().Get("Retry-After"))
			assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_WindowKeyExpires(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	limiter := NewRateLimiter(client, 1, time.Minute, "test", GetClientIP)
	handler := limiter.Limit(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, mr.TTL(keys[0]) > 0, "window key should expire")
}

func TestRateLimiter_FallsBackWhenRedisDown(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	mr.Close()

	limiter := NewRateLimiter(client, 2, time.Hour, "test", func(r *http.Request) string { return "fixed" })
	handler := limiter.Limit(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimiter_NilRedisUsesLocalBucket(t *testing.T) {
	limiter := NewRateLimiter(nil, 1, time.Hour, "test", nil)
	handler := limiter.Limit(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestSuggestionRateLimiter_PerUser(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	limiter := NewSuggestionRateLimiter(client, 1)
	handler := limiter.Limit(okHandler())

	send := func(user *models.User) int {
		req := httptest.NewRequest(http.MethodPost, "/api/ai-suggest", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req = req.WithContext(handlers.SetUserInContext(req.Context(), user))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	alice := &models.User{ID: uuid.New()}
	bob := &models.User{ID: uuid.New()}
	assert.Equal(t, http.StatusOK, send(alice))
	assert.Equal(t, http.StatusTooManyRequests, send(alice))
	assert.Equal(t, http.StatusOK, send(bob), "users behind one IP have separate limits")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"X-Forwarded-For single", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "192.168.1.1:1234", "10.0.0.1"},
		{"X-Forwarded-For multiple", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "192.168.1.1:1234", "10.0.0.1"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "10.0.0.2"}, "192.168.1.1:1234", "10.0.0.2"},
		{"XFF preferred over X-Real-IP", map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.2"}, "192.168.1.1:1234", "10.0.0.1"},
		{"no headers", map[string]string{}, "192.168.1.1:1234", "192.168.1.1"},
		{"remote without port", map[string]string{}, "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remote
			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}

func TestRateLimiter_RejectionIsNotRetryable(t *testing.T) {
	limiter := NewSuggestionRateLimiter(nil, 1)
	handler := limiter.Limit(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/ai-suggest", nil))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ai-suggest", nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "AI suggestion limit reached. Please try again later.", body["error"])
	retryable, present := body["retryable"]
	assert.True(t, present, "retryable must be sent explicitly")
	assert.Equal(t, false, retryable)
}

func TestRateLimiter_LocalBucketsEvicted(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(nil, 5, time.Minute, "test", func(r *http.Request) string {
		return r.Header.Get("X-Key")
	})
	limiter.now = func() time.Time { return now }
	handler := limiter.Limit(okHandler())

	send := func(key string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Key", key)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	for i := 0; i < 100; i++ {
		send(uuid.NewString())
	}
	assert.Len(t, limiter.local, 100)

	now = now.Add(30 * time.Second)
	send("active")
	now = now.Add(45 * time.Second)
	send("late")

	assert.Len(t, limiter.local, 2, "idle buckets are dropped after a window")
	assert.Contains(t, limiter.local, "test:active")
	assert.Contains(t, limiter.local, "test:late")
}
