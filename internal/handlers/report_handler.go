package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/lucivanservicos/ops-gestao/internal/services/reports"
)

// ReportHandler serves the aggregation report and statistics endpoints.
type ReportHandler struct {
	reportService *reports.Service
	logger        arbor.ILogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *reports.Service, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// TimelineHandler returns month-bucketed ticket counts.
// GET /api/reports/timeline?start_date=...&end_date=...
func (h *ReportHandler) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	start, ok := parseDateParam(w, r, "start_date")
	if !ok {
		return
	}
	end, ok := parseDateParam(w, r, "end_date")
	if !ok {
		return
	}

	timeline, err := h.reportService.Timeline(r.Context(), start, end)
	if err != nil {
		h.logger.Error().Err(err).Msg("Timeline report failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, timeline)
}

// DistributionHandler returns ticket counts by tipo, site and status.
// GET /api/reports/distribution
func (h *ReportHandler) DistributionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	dist, err := h.reportService.Distribution(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Distribution report failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, dist)
}

// PerformanceHandler returns top creators and finalizers for the last 30 days.
// GET /api/reports/performance
func (h *ReportHandler) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	perf, err := h.reportService.Performance(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Performance report failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, perf)
}

// UserStatsHandler returns the caller's activity in the current month.
// GET /api/user/stats
func (h *ReportHandler) UserStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	user, ok := RequireUser(w, r)
	if !ok {
		return
	}

	stats, err := h.reportService.UserStats(r.Context(), user.Username)
	if err != nil {
		h.logger.Error().Err(err).Msg("User stats failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// MonthlyStatsHandler returns the month's validated-ticket leaders.
// GET /api/stats/monthly
func (h *ReportHandler) MonthlyStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if _, ok := RequireUser(w, r); !ok {
		return
	}

	stats, err := h.reportService.MonthlyStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Monthly stats failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// parseDateParam reads an RFC 3339 date query parameter. A missing parameter
// yields a zero time; a malformed one writes a 400 response.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return time.Time{}, false
	}
	return t.UTC(), true
}
