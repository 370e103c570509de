package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/models"
	"github.com/lucivanservicos/ops-gestao/internal/services/auth"
	"github.com/lucivanservicos/ops-gestao/internal/services/pendencias"
)

// AdminHandler serves the admin-only endpoints: user approval workflow,
// ticket validation, and form configuration.
type AdminHandler struct {
	authService      *auth.Service
	pendenciaService *pendencias.Service
	logger           arbor.ILogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *auth.Service, pendenciaService *pendencias.Service, logger arbor.ILogger) *AdminHandler {
	return &AdminHandler{
		authService:      authService,
		pendenciaService: pendenciaService,
		logger:           logger,
	}
}

// PendingUsersHandler lists accounts awaiting approval.
// GET /api/admin/pending-users
func (h *AdminHandler) PendingUsersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	users, err := h.authService.PendingUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list pending users")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	summaries := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, map[string]interface{}{
			"id":         u.ID,
			"username":   u.Username,
			"created_at": u.CreatedAt,
		})
	}

	WriteJSON(w, http.StatusOK, summaries)
}

// AllUsersHandler lists every account with its approval state.
// GET /api/admin/all-users
func (h *AdminHandler) AllUsersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	users, err := h.authService.AllUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list users")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, models.UserSummary{
			ID:         u.ID,
			Username:   u.Username,
			Role:       u.Role,
			Status:     u.Status,
			CreatedAt:  u.CreatedAt,
			ApprovedBy: u.ApprovedBy,
			ApprovedAt: u.ApprovedAt,
		})
	}

	WriteJSON(w, http.StatusOK, summaries)
}

type approvalRequest struct {
	Status string `json:"status" validate:"required"`
}

// ApproveUserHandler approves or rejects a pending account.
// PUT /api/admin/approve-user/{id}
func (h *AdminHandler) ApproveUserHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}
	admin, ok := RequireAdmin(w, r)
	if !ok {
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/admin/approve-user/")
	var req approvalRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	if err := h.authService.ApproveUser(r.Context(), userID, req.Status, admin.Username); err != nil {
		if errors.Is(err, auth.ErrInvalidApprovalStatus) {
			WriteError(w, http.StatusBadRequest, "Status must be APPROVED or REJECTED")
			return
		}
		writeStorageError(w, err, "User not found")
		return
	}

	WriteMessage(w, fmt.Sprintf("User %s successfully", strings.ToLower(req.Status)))
}

// DeleteUserHandler removes an account.
// DELETE /api/admin/delete-user/{id}
func (h *AdminHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}
	admin, ok := RequireAdmin(w, r)
	if !ok {
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/admin/delete-user/")

	if err := h.authService.DeleteUser(r.Context(), userID, admin); err != nil {
		if errors.Is(err, auth.ErrCannotDeleteSelf) {
			WriteError(w, http.StatusBadRequest, "Cannot delete your own account")
			return
		}
		writeStorageError(w, err, "User not found")
		return
	}

	WriteMessage(w, "User deleted successfully")
}

type passwordResetRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

// ResetPasswordHandler sets a new password on any account.
// PUT /api/admin/reset-password/{id}
func (h *AdminHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/admin/reset-password/")
	var req passwordResetRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), userID, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			WriteError(w, http.StatusBadRequest, "Password must be at least 4 characters")
			return
		}
		writeStorageError(w, err, "User not found")
		return
	}

	WriteMessage(w, "Password reset successfully")
}

// AllPendenciasHandler lists every ticket regardless of creator.
// GET /api/admin/pendencias
func (h *AdminHandler) AllPendenciasHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	list, err := h.pendenciaService.List(r.Context(), models.PendenciaFilter{})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list pendencias")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, list)
}

type validationRequest struct {
	Status          string `json:"status" validate:"required"`
	ValidationNotes string `json:"validation_notes"`
}

// ValidatePendenciaHandler records the admin review of a finalized ticket.
// PUT /api/admin/validate-pendencia/{id}
func (h *AdminHandler) ValidatePendenciaHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}
	admin, ok := RequireAdmin(w, r)
	if !ok {
		return
	}

	pendenciaID := strings.TrimPrefix(r.URL.Path, "/api/admin/validate-pendencia/")
	var req validationRequest
	if !ReadJSON(w, r, &req) {
		return
	}

	if _, err := h.pendenciaService.Validate(r.Context(), pendenciaID, req.Status, req.ValidationNotes, admin.Username); err != nil {
		switch {
		case errors.Is(err, pendencias.ErrInvalidValidation),
			errors.Is(err, pendencias.ErrNotFinalized):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			writeStorageError(w, err, "Pendência não encontrada")
		}
		return
	}

	WriteMessage(w, "Pendência validada com sucesso")
}

// DeletePendenciaHandler removes a ticket of any status.
// DELETE /api/admin/delete-pendencia/{id}
func (h *AdminHandler) DeletePendenciaHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	pendenciaID := strings.TrimPrefix(r.URL.Path, "/api/admin/delete-pendencia/")

	if err := h.pendenciaService.AdminDelete(r.Context(), pendenciaID); err != nil {
		writeStorageError(w, err, "Pendência não encontrada")
		return
	}

	WriteMessage(w, "Pendência excluída com sucesso")
}

type formConfigRequest struct {
	EnergiaOptions []string `json:"energia_options" validate:"required"`
	ArconOptions   []string `json:"arcon_options" validate:"required"`
}

// FormConfigHandler reads or replaces the pendencia form dropdown options.
// GET/PUT /api/admin/form-config
func (h *AdminHandler) FormConfigHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := RequireAdmin(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		cfg, err := h.pendenciaService.FormConfig(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to load form config")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"energia_options": cfg.EnergiaOptions,
			"arcon_options":   cfg.ArconOptions,
		})

	case "PUT":
		var req formConfigRequest
		if !ReadJSON(w, r, &req) {
			return
		}
		if _, err := h.pendenciaService.UpdateFormConfig(r.Context(), req.EnergiaOptions, req.ArconOptions, admin.Username); err != nil {
			h.logger.Error().Err(err).Msg("Failed to update form config")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		WriteMessage(w, "Configuração do formulário atualizada com sucesso")

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
