package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/resumebuilder/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookieName = "session_token"

func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// SessionTokenFromRequest returns the session token from the session cookie,
// or from an "Authorization: Bearer" header when no cookie is set.
func SessionTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}
