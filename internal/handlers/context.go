package handlers

import (
	"context"
	"net/http"

	"github.com/lucivanservicos/ops-gestao/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticated-user"

// WithUser stores the authenticated user on the request context. Called by
// the server's auth middleware after token verification.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser returns the authenticated user from the request context, or
// nil on unauthenticated routes.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// RequireUser extracts the authenticated user, writing 401 when absent.
func RequireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := CurrentUser(r)
	if user == nil {
		WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return user, true
}

// RequireAdmin extracts the authenticated user and enforces the admin role.
func RequireAdmin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := RequireUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin() {
		WriteError(w, http.StatusForbidden, "Admin access required")
		return nil, false
	}
	return user, true
}
