package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/server/middleware"
)

// HeadingsHandler serves the per-admin table heading preferences.
type HeadingsHandler struct {
	store  *config.Store
	logger *slog.Logger
}

// NewHeadingsHandler creates a new HeadingsHandler.
func NewHeadingsHandler(store *config.Store, logger *slog.Logger) *HeadingsHandler {
	return &HeadingsHandler{store: store, logger: logger}
}

type headingsRequest struct {
	UserID   int64          `json:"userId"`
	Headings model.Headings `json:"headings"`
}

// GetHeadings returns an admin's headings for one table kind. userId
// defaults to the authenticated admin.
// POST /headings/{kind}
func (h *HeadingsHandler) GetHeadings(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseHeadingKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req headingsRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	admin, ok := h.loadAdmin(w, r, req.UserID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, model.DataResponse{
		Message: "Table headings retrieved successfully!",
		Data:    admin.Headings(kind),
	})
}

// UpdateHeadings replaces an admin's headings for one table kind.
// PUT /headings/{kind}
func (h *HeadingsHandler) UpdateHeadings(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseHeadingKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req headingsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Headings == nil {
		writeError(w, http.StatusBadRequest, "headings are required")
		return
	}

	id := adminIDOrCaller(r, req.UserID)
	if err := h.store.SetAdminHeadings(r.Context(), id, kind, req.Headings); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Admin does not exist")
			return
		}
		h.logger.ErrorContext(r.Context(), "update headings", "admin_id", id, "kind", string(kind), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update headings: "+err.Error())
		return
	}

	admin, ok := h.loadAdmin(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.DataResponse{
		Message: "Heading Changed successfully!",
		Data:    admin,
	})
}

func (h *HeadingsHandler) loadAdmin(w http.ResponseWriter, r *http.Request, userID int64) (*model.Admin, bool) {
	id := adminIDOrCaller(r, userID)
	admin, err := h.store.GetAdmin(r.Context(), id)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Admin does not exist")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError,
			"An error occurred while retrieving the table headings: "+err.Error())
		return nil, false
	}
	return admin, true
}

func adminIDOrCaller(r *http.Request, userID int64) int64 {
	if userID != 0 {
		return userID
	}
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		return p.AdminID
	}
	return 0
}
