package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/storage"
)

// ReportLister exposes stored report metadata for the API surface.
type ReportLister interface {
	ListReports(ctx context.Context, limit int) ([]*storage.ReportRecord, error)
}

type APIHandler struct {
	sessions *SessionStore
	reports  ReportLister
	logger   arbor.ILogger
}

func NewAPIHandler(sessions *SessionStore, reports ReportLister, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		sessions: sessions,
		reports:  reports,
		logger:   logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// StatusHandler returns server state including active websocket sessions.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"version":         common.GetVersion(),
		"active_sessions": h.sessions.Count(),
	})
}

// ListReportsHandler returns stored report metadata, newest first.
// Supports an optional ?limit= query parameter.
func (h *APIHandler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if h.reports == nil {
		WriteError(w, http.StatusServiceUnavailable, "report storage is not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.reports.ListReports(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		WriteError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"reports": records,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
