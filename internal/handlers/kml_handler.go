package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/services/kml"
	"github.com/lucivanservicos/ops-gestao/internal/services/locations"
)

// maxUploadBytes bounds the multipart form memory for KML uploads.
const maxUploadBytes = 32 << 20

// KMLHandler serves KML ingestion, location search and observation endpoints.
type KMLHandler struct {
	kmlService      *kml.Service
	locationService *locations.Service
	logger          arbor.ILogger
}

// NewKMLHandler creates a new KML handler
func NewKMLHandler(kmlService *kml.Service, locationService *locations.Service, logger arbor.ILogger) *KMLHandler {
	return &KMLHandler{
		kmlService:      kmlService,
		locationService: locationService,
		logger:          logger,
	}
}

// UploadHandler ingests an uploaded KML file into a new active batch.
// POST /api/admin/upload-kml
func (h *KMLHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	admin, ok := RequireAdmin(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.kmlService.Ingest(r.Context(), content, header.Filename, admin.Username)
	if err != nil {
		var parseErr *kml.XMLParseError
		var noLocations *kml.NoValidLocationsError
		switch {
		case errors.Is(err, kml.ErrUnsupportedExtension):
			WriteError(w, http.StatusBadRequest, "Apenas arquivos KML são aceitos")
		case errors.As(err, &parseErr):
			WriteError(w, http.StatusBadRequest, parseErr.Error())
		case errors.As(err, &noLocations):
			// A parseable file with zero usable placemarks is treated as a
			// processing failure, not client error, matching the deployed
			// behavior the frontend expects.
			WriteError(w, http.StatusInternalServerError, noLocations.Error())
		default:
			h.logger.Error().Err(err).Str("filename", header.Filename).Msg("KML ingestion failed")
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Erro ao processar arquivo KML: %v", err))
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":         fmt.Sprintf("Arquivo KML processado com sucesso! %d localizações encontradas.", result.Batch.TotalLocations),
		"kml_id":          result.Batch.ID,
		"total_locations": result.Batch.TotalLocations,
		"locations":       result.Preview,
	})
}

// DeleteBatchHandler removes an ingested batch and all its locations.
// DELETE /api/admin/kml/{id}
func (h *KMLHandler) DeleteBatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}
	if _, ok := RequireAdmin(w, r); !ok {
		return
	}

	batchID := strings.TrimPrefix(r.URL.Path, "/api/admin/kml/")

	if err := h.kmlService.DeleteBatch(r.Context(), batchID); err != nil {
		writeStorageError(w, err, "Dados KML não encontrados")
		return
	}

	WriteMessage(w, "Dados KML excluídos com sucesso")
}

// LocationsHandler lists every location across active batches.
// GET /api/kml/locations
func (h *KMLHandler) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	list, err := h.locationService.ListLocations(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list locations")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, list)
}

// SearchHandler searches active locations by name or description substring.
// GET /api/kml/search?query=...&limit=...
func (h *KMLHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	query := r.URL.Query().Get("query")
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			limit = n
		}
	}

	results, err := h.locationService.Search(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, locations.ErrQueryTooShort) {
			WriteError(w, http.StatusBadRequest, "Query deve ter pelo menos 2 caracteres")
			return
		}
		h.logger.Error().Err(err).Str("query", query).Msg("Location search failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"total_found": len(results),
		"locations":   results,
	})
}

// ObservationsHandler adds or lists annotations on a location.
// POST/GET /api/kml/locations/{id}/observations
func (h *KMLHandler) ObservationsHandler(w http.ResponseWriter, r *http.Request, locationID string) {
	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "POST":
		var req struct {
			Observation string `json:"observation"`
		}
		if !ReadJSON(w, r, &req) {
			return
		}

		obs, err := h.locationService.AddObservation(r.Context(), locationID, user.ID, user.Username, req.Observation)
		if err != nil {
			if errors.Is(err, locations.ErrEmptyObservation) {
				WriteError(w, http.StatusBadRequest, "Observação não pode estar vazia")
				return
			}
			h.logger.Error().Err(err).Str("location_id", locationID).Msg("Failed to add observation")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		WriteJSON(w, http.StatusOK, map[string]string{
			"message":        "Observação adicionada com sucesso",
			"observation_id": obs.ID,
		})

	case "GET":
		list, err := h.locationService.ListObservations(r.Context(), locationID)
		if err != nil {
			h.logger.Error().Err(err).Str("location_id", locationID).Msg("Failed to list observations")
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		WriteJSON(w, http.StatusOK, list)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// DeleteObservationHandler removes an annotation. Authors delete their own;
// admins delete any.
// DELETE /api/kml/observations/{id}
func (h *KMLHandler) DeleteObservationHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}
	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	observationID := strings.TrimPrefix(r.URL.Path, "/api/kml/observations/")

	if err := h.locationService.DeleteObservation(r.Context(), observationID, user.ID, user.IsAdmin()); err != nil {
		if errors.Is(err, locations.ErrObservationForbidden) {
			WriteError(w, http.StatusForbidden, "Você só pode excluir suas próprias observações")
			return
		}
		writeStorageError(w, err, "Observação não encontrada")
		return
	}

	WriteMessage(w, "Observação excluída com sucesso")
}
