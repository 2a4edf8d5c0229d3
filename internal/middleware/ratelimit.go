package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/HammerMeetNail/resumebuilder/internal/handlers"
	"github.com/HammerMeetNail/resumebuilder/internal/logging"
)

// KeyFunc derives the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// RateLimiter is a fixed-window limiter backed by Redis. When Redis is
// unavailable it falls back to a per-process token bucket with the same
// average rate, so limits stay approximately enforced on a single instance.
type RateLimiter struct {
	redis   *redis.Client
	limit   int
	window  time.Duration
	prefix  string
	keyFunc KeyFunc
	message string

	mu        sync.Mutex
	local     map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, prefix string, keyFunc KeyFunc) *RateLimiter {
	if keyFunc == nil {
		keyFunc = GetClientIP
	}
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		redis:   redisClient,
		limit:   limit,
		window:  window,
		prefix:  prefix,
		keyFunc: keyFunc,
		message: "Rate limit exceeded. Please try again later.",
		local:   make(map[string]*localBucket),
		now:     time.Now,
	}
}

// Stricter rate limiter for auth endpoints
func NewAuthRateLimiter(redisClient *redis.Client) *RateLimiter {
	return NewRateLimiter(redisClient, 10, time.Minute, "ratelimit:auth", GetClientIP)
}

// NewSuggestionRateLimiter limits AI suggestions per signed-in user per hour.
func NewSuggestionRateLimiter(redisClient *redis.Client, perHour int) *RateLimiter {
	rl := NewRateLimiter(redisClient, perHour, time.Hour, "ratelimit:ai", UserOrIPKey)
	rl.message = "AI suggestion limit reached. Please try again later."
	return rl
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.prefix + ":" + rl.keyFunc(r)

		allowed, remaining, resetTime, err := rl.isAllowed(r.Context(), key)
		if err != nil {
			logging.FromContext(r.Context()).Warn("Rate limiter falling back to local bucket", map[string]interface{}{
				"prefix": rl.prefix,
				"error":  err.Error(),
			})
			allowed, remaining, resetTime = rl.allowLocal(key)
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

		if !allowed {
			retryAfter := resetTime - rl.now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			// Quota rejections hold for the rest of the window.
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":     rl.message,
				"retryable": false,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isAllowed(ctx context.Context, key string) (allowed bool, remaining int, resetTime int64, err error) {
	if rl.redis == nil {
		return false, 0, 0, fmt.Errorf("redis not configured")
	}

	windowStart := rl.now().Truncate(rl.window)
	windowKey := fmt.Sprintf("%s:%d", key, windowStart.Unix())
	resetTime = windowStart.Add(rl.window).Unix()

	pipe := rl.redis.TxPipeline()
	incrCmd := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, rl.window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, resetTime, err
	}

	count := int(incrCmd.Val())
	remaining = rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.limit, remaining, resetTime, nil
}

func (rl *RateLimiter) allowLocal(key string) (allowed bool, remaining int, resetTime int64) {
	now := rl.now()

	rl.mu.Lock()
	rl.sweepLocked(now)
	b, ok := rl.local[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.local[key] = b
	}
	b.lastSeen = now
	lim := b.lim
	rl.mu.Unlock()

	allowed = lim.AllowN(now, 1)
	remaining = int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, now.Add(rl.window).Unix()
}

// sweepLocked drops buckets idle for a whole window. Such a bucket has
// refilled completely, so a fresh one behaves the same. Runs at most once per
// window; rl.mu must be held.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for key, b := range rl.local {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.local, key)
		}
	}
	rl.lastSweep = now
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserOrIPKey keys signed-in requests by user id and anonymous ones by IP.
func UserOrIPKey(r *http.Request) string {
	if user := handlers.GetUserFromContext(r.Context()); user != nil {
		return "user:" + user.ID.String()
	}
	return "ip:" + GetClientIP(r)
}
