package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Authentication
	mux.HandleFunc("/api/register", s.app.AuthHandler.RegisterHandler)
	mux.HandleFunc("/api/login", s.loginRateMiddleware(s.app.AuthHandler.LoginHandler))
	mux.HandleFunc("/api/me", s.app.AuthHandler.MeHandler)
	mux.HandleFunc("/api/user/change-password", s.app.AuthHandler.ChangePasswordHandler)
	mux.HandleFunc("/api/user/stats", s.app.ReportHandler.UserStatsHandler)

	// API routes - Pendencias
	mux.HandleFunc("/api/pendencias", s.app.PendenciaHandler.PendenciasHandler) // GET (list), POST (create)
	mux.HandleFunc("/api/pendencias/export", s.app.PendenciaHandler.ExportHandler)
	mux.HandleFunc("/api/pendencias/", s.handlePendenciaRoutes) // PUT/DELETE /{id}, PUT /{id}/edit
	mux.HandleFunc("/api/sites", s.app.PendenciaHandler.SitesHandler)

	// API routes - Admin (user approval workflow)
	mux.HandleFunc("/api/admin/pending-users", s.app.AdminHandler.PendingUsersHandler)
	mux.HandleFunc("/api/admin/all-users", s.app.AdminHandler.AllUsersHandler)
	mux.HandleFunc("/api/admin/approve-user/", s.app.AdminHandler.ApproveUserHandler)
	mux.HandleFunc("/api/admin/delete-user/", s.app.AdminHandler.DeleteUserHandler)
	mux.HandleFunc("/api/admin/reset-password/", s.app.AdminHandler.ResetPasswordHandler)

	// API routes - Admin (ticket review and form configuration)
	mux.HandleFunc("/api/admin/pendencias", s.app.AdminHandler.AllPendenciasHandler)
	mux.HandleFunc("/api/admin/validate-pendencia/", s.app.AdminHandler.ValidatePendenciaHandler)
	mux.HandleFunc("/api/admin/delete-pendencia/", s.app.AdminHandler.DeletePendenciaHandler)
	mux.HandleFunc("/api/admin/form-config", s.app.AdminHandler.FormConfigHandler)

	// API routes - KML ingestion and location search
	mux.HandleFunc("/api/admin/upload-kml", s.app.KMLHandler.UploadHandler)
	mux.HandleFunc("/api/admin/kml/", s.app.KMLHandler.DeleteBatchHandler)
	mux.HandleFunc("/api/kml/locations", s.app.KMLHandler.LocationsHandler)
	mux.HandleFunc("/api/kml/locations/", s.handleLocationRoutes) // /{id}/observations
	mux.HandleFunc("/api/kml/search", s.app.KMLHandler.SearchHandler)
	mux.HandleFunc("/api/kml/observations/", s.app.KMLHandler.DeleteObservationHandler)

	// API routes - Reports
	mux.HandleFunc("/api/reports/timeline", s.app.ReportHandler.TimelineHandler)
	mux.HandleFunc("/api/reports/distribution", s.app.ReportHandler.DistributionHandler)
	mux.HandleFunc("/api/reports/performance", s.app.ReportHandler.PerformanceHandler)
	mux.HandleFunc("/api/stats/monthly", s.app.ReportHandler.MonthlyStatsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handlePendenciaRoutes routes /api/pendencias/{id} requests
func (s *Server) handlePendenciaRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/pendencias/")

	// PUT /api/pendencias/{id}/edit
	if r.Method == "PUT" && strings.HasSuffix(path, "/edit") {
		s.app.PendenciaHandler.EditHandler(w, r, strings.TrimSuffix(path, "/edit"))
		return
	}

	if strings.Contains(path, "/") || path == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "PUT":
		// PUT /api/pendencias/{id} - finalize
		s.app.PendenciaHandler.FinalizeHandler(w, r, path)
	case "DELETE":
		s.app.PendenciaHandler.DeleteHandler(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleLocationRoutes routes /api/kml/locations/{id}/observations requests
func (s *Server) handleLocationRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/kml/locations/")

	if strings.HasSuffix(path, "/observations") {
		locationID := strings.TrimSuffix(path, "/observations")
		if locationID != "" {
			s.app.KMLHandler.ObservationsHandler(w, r, locationID)
			return
		}
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
