package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/services/auth"
)

// AuthHandler serves registration, login and profile endpoints.
type AuthHandler struct {
	authService *auth.Service
	logger      arbor.ILogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=4"`
}

// RegisterHandler creates a new account.
// POST /api/register
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req credentialsRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			WriteError(w, http.StatusBadRequest, "Username already registered")
			return
		}
		h.logger.Error().Err(err).Msg("Registration failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, session)
}

// LoginHandler authenticates a username/password pair.
// POST /api/login
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req credentialsRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			WriteError(w, http.StatusUnauthorized, "Incorrect username or password")
		case errors.Is(err, auth.ErrAccountPending):
			WriteError(w, http.StatusForbidden, "Account pending admin approval")
		case errors.Is(err, auth.ErrAccountRejected):
			WriteError(w, http.StatusForbidden, "Account access denied")
		default:
			h.logger.Error().Err(err).Msg("Login failed")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	WriteJSON(w, http.StatusOK, session)
}

// MeHandler returns the authenticated user's profile.
// GET /api/me
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ChangePasswordHandler updates the caller's own password.
// PUT /api/user/change-password
func (h *AuthHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var req passwordChangeRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongPassword):
			WriteError(w, http.StatusBadRequest, "Current password is incorrect")
		case errors.Is(err, auth.ErrPasswordTooShort):
			WriteError(w, http.StatusBadRequest, "New password must be at least 4 characters")
		default:
			h.logger.Error().Err(err).Msg("Password change failed")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	WriteMessage(w, "Password changed successfully")
}
