package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/resumebuilder/internal/logging"
	"github.com/HammerMeetNail/resumebuilder/internal/services/ai"
)

// Suggester is the contract of the suggestion pipeline used by AIHandler.
type Suggester interface {
	Suggest(ctx context.Context, userID uuid.UUID, req ai.SuggestionRequest) ([]string, error)
}

type AIHandler struct {
	service Suggester
}

func NewAIHandler(service Suggester) *AIHandler {
	return &AIHandler{service: service}
}

// Suggest handles POST /api/ai-suggest.
func (h *AIHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ai.SuggestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	suggestions, err := h.service.Suggest(r.Context(), user.ID, req)
	if err != nil {
		status, body := mapSuggestionError(err)
		log := logging.FromContext(r.Context())
		fields := map[string]interface{}{
			"user_id": user.ID.String(),
			"context": req.Kind(),
			"status":  status,
			"error":   err.Error(),
		}
		if status >= http.StatusInternalServerError {
			log.Error("AI suggestion failed", fields)
		} else {
			log.Warn("AI suggestion rejected", fields)
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, ai.SuggestionResponse{Suggestions: suggestions})
}

// mapSuggestionError maps a pipeline error to exactly one status and body.
func mapSuggestionError(err error) (int, ErrorResponse) {
	var verr *ai.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{Error: verr.Message}
	}

	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusInternalServerError, ErrorResponse{Error: "AI service is not configured"}
	case errors.Is(err, ai.ErrAuth):
		return http.StatusUnauthorized, ErrorResponse{Error: "AI provider rejected the API credentials"}
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error:     "AI provider rate limit exceeded. Please retry shortly.",
			Retryable: true,
		}
	case errors.Is(err, ai.ErrOverloaded):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:     "AI provider is overloaded. Please retry shortly.",
			Retryable: true,
		}
	case errors.Is(err, ai.ErrMalformedRequest):
		resp := ErrorResponse{Error: "Invalid request to AI provider"}
		var pe *ai.ProviderError
		if errors.As(err, &pe) {
			resp.Details = pe.Detail
		}
		return http.StatusBadRequest, resp
	case errors.Is(err, ai.ErrTimeout):
		return http.StatusRequestTimeout, ErrorResponse{Error: "AI provider timed out"}
	case errors.Is(err, ai.ErrConnectivity):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Could not reach AI provider"}
	case errors.Is(err, ai.ErrEmptyResult):
		return http.StatusInternalServerError, ErrorResponse{Error: "No suggestions generated. Please try again."}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "An unexpected error occurred."}
	}
}
