package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/models"
	"github.com/lucivanservicos/ops-gestao/internal/services/export"
	"github.com/lucivanservicos/ops-gestao/internal/services/pendencias"
)

// PendenciaHandler serves the ticket lifecycle endpoints available to every
// authenticated user.
type PendenciaHandler struct {
	pendenciaService *pendencias.Service
	exportService    *export.Service
	logger           arbor.ILogger
}

// NewPendenciaHandler creates a new pendencia handler
func NewPendenciaHandler(pendenciaService *pendencias.Service, exportService *export.Service, logger arbor.ILogger) *PendenciaHandler {
	return &PendenciaHandler{
		pendenciaService: pendenciaService,
		exportService:    exportService,
		logger:           logger,
	}
}

// PendenciasHandler creates or lists tickets.
// POST/GET /api/pendencias
func (h *PendenciaHandler) PendenciasHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "POST":
		var req pendencias.CreateInput
		if !ReadJSON(w, r, &req) {
			return
		}

		p, err := h.pendenciaService.Create(r.Context(), req, user.Username)
		if err != nil {
			if errors.Is(err, pendencias.ErrPhotoRequired) {
				WriteError(w, http.StatusBadRequest, "Foto é obrigatória para criar uma pendência")
				return
			}
			h.logger.Error().Err(err).Msg("Failed to create pendencia")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		WriteJSON(w, http.StatusOK, p)

	case "GET":
		filter := filterFromQuery(r)
		list, err := h.pendenciaService.List(r.Context(), filter)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list pendencias")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		WriteJSON(w, http.StatusOK, list)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// SitesHandler lists the distinct site names across all tickets.
// GET /api/sites
func (h *PendenciaHandler) SitesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	sites, err := h.pendenciaService.Sites(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list sites")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string][]string{"sites": sites})
}

// FinalizeHandler closes an open ticket when the request carries status
// "Finalizado".
// PUT /api/pendencias/{id}
func (h *PendenciaHandler) FinalizeHandler(w http.ResponseWriter, r *http.Request, pendenciaID string) {
	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Status                string `json:"status" validate:"required"`
		InformacoesFechamento string `json:"informacoes_fechamento"`
		FotoFechamentoBase64  string `json:"foto_fechamento_base64"`
	}
	if !ReadJSON(w, r, &req) {
		return
	}

	if req.Status != models.PendenciaStatusFinalizado {
		WriteError(w, http.StatusBadRequest, "Status inválido")
		return
	}

	p, err := h.pendenciaService.Finalize(r.Context(), pendenciaID, pendencias.FinalizeInput{
		InformacoesFechamento: req.InformacoesFechamento,
		FotoFechamentoBase64:  req.FotoFechamentoBase64,
	}, user.Username)
	if err != nil {
		switch {
		case errors.Is(err, pendencias.ErrClosingInfoRequired):
			WriteError(w, http.StatusBadRequest, "Informações de fechamento são obrigatórias")
		case errors.Is(err, pendencias.ErrClosingPhotoRequired):
			WriteError(w, http.StatusBadRequest, "Foto de fechamento é obrigatória")
		case errors.Is(err, pendencias.ErrAlreadyFinalized):
			WriteError(w, http.StatusBadRequest, "Pendência já foi finalizada")
		default:
			writeStorageError(w, err, "Pendência not found")
		}
		return
	}

	WriteJSON(w, http.StatusOK, p)
}

// EditHandler replaces the descriptive fields of an open ticket.
// PUT /api/pendencias/{id}/edit
func (h *PendenciaHandler) EditHandler(w http.ResponseWriter, r *http.Request, pendenciaID string) {
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	var req pendencias.EditInput
	if !ReadJSON(w, r, &req) {
		return
	}

	p, err := h.pendenciaService.Edit(r.Context(), pendenciaID, req)
	if err != nil {
		if errors.Is(err, pendencias.ErrNotEditable) {
			WriteError(w, http.StatusBadRequest, "Só é possível editar pendências com status 'Pendente'")
			return
		}
		writeStorageError(w, err, "Pendência não encontrada")
		return
	}

	WriteJSON(w, http.StatusOK, p)
}

// DeleteHandler removes an open ticket.
// DELETE /api/pendencias/{id}
func (h *PendenciaHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, pendenciaID string) {
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	if err := h.pendenciaService.Delete(r.Context(), pendenciaID); err != nil {
		if errors.Is(err, pendencias.ErrNotEditable) {
			WriteError(w, http.StatusBadRequest, "Só é possível excluir pendências com status 'Pendente'")
			return
		}
		writeStorageError(w, err, "Pendência não encontrada")
		return
	}

	WriteMessage(w, "Pendência excluída com sucesso")
}

// ExportHandler streams the filtered ticket listing as an Excel workbook.
// GET /api/pendencias/export
func (h *PendenciaHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	data, err := h.exportService.Export(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Excel export failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pendencias.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func filterFromQuery(r *http.Request) models.PendenciaFilter {
	q := r.URL.Query()
	return models.PendenciaFilter{
		Site:   strings.TrimSpace(q.Get("site")),
		Tipo:   strings.TrimSpace(q.Get("tipo")),
		Status: strings.TrimSpace(q.Get("status")),
	}
}
