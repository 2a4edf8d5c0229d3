package ai

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured    = errors.New("AI service is not configured")             // 500
	ErrAuth             = errors.New("AI provider rejected the API credentials") // 401
	ErrRateLimited      = errors.New("AI provider rate limit exceeded")          // 429
	ErrOverloaded       = errors.New("AI provider is overloaded")                // 503
	ErrMalformedRequest = errors.New("invalid request to AI provider")           // 400
	ErrTimeout          = errors.New("AI provider timed out")                    // 408
	ErrConnectivity     = errors.New("could not reach AI provider")              // 503
	ErrUnexpected       = errors.New("unexpected response from AI provider")     // 500
	ErrEmptyResult      = errors.New("no suggestions generated")                 // 500
)

// ProviderError describes a failed gateway call. It matches its Kind with errors.Is.
type ProviderError struct {
	Kind       error
	StatusCode int
	Detail     string
}

func (e *ProviderError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// IsRetryable reports whether a caller may retry the whole request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrOverloaded)
}

// ValidationError is returned for requests missing required fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// usageStatus is the status column written to ai_generation_logs for err.
func usageStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrOverloaded):
		return "overloaded"
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnectivity):
		return "connectivity_error"
	default:
		return "error"
	}
}
