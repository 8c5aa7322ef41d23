package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
)

const (
	defaultPageEnd = 10
	maxPageSize    = 1000
)

// IncidentHandler serves incident listing and status changes.
type IncidentHandler struct {
	store  *config.Store
	logger *slog.Logger
}

// NewIncidentHandler creates a new IncidentHandler.
func NewIncidentHandler(store *config.Store, logger *slog.Logger) *IncidentHandler {
	return &IncidentHandler{store: store, logger: logger}
}

// PageWindow converts start/end query values into an offset and limit.
// A negative start is treated as 0 and the limit is clamped to
// [0, maxPageSize].
func PageWindow(start, end int) (offset, limit int) {
	offset = max(start, 0)
	limit = clampInt(end-offset, 0, maxPageSize)
	return offset, limit
}

// ListIncidents returns one page of incidents.
// GET /incidents?start=0&end=10
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	offset, limit := PageWindow(queryInt(r, "start", 0), queryInt(r, "end", defaultPageEnd))

	incidents, err := h.store.ListIncidents(r.Context(), offset, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list incidents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list incidents: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.IncidentPage{
		Success: true,
		Data:    incidents,
		Pagination: model.Pagination{
			Start: offset,
			End:   offset + limit,
			Count: len(incidents),
		},
	})
}

type statusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type statusResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	UpdatedIncident *model.Incident `json:"updatedIncident"`
}

// UpdateStatus changes the status of a single incident.
// POST /incidents/status
func (h *IncidentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ID <= 0 || req.Status == "" {
		writeError(w, http.StatusBadRequest, "Incident id and status are required")
		return
	}

	inc, err := h.store.UpdateIncidentStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Incident not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "update incident status", "incident_id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update incident: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Success:         true,
		Message:         "Status successfully changed",
		UpdatedIncident: inc,
	})
}
