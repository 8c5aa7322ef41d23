package handler

import (
	"log/slog"
	"net/http"

	"github.com/sentinelops/incidentdesk/internal/config"
	"github.com/sentinelops/incidentdesk/internal/model"
)

// UserHandler serves the end-user listing.
type UserHandler struct {
	store  *config.Store
	logger *slog.Logger
}

func NewUserHandler(store *config.Store, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

// ListUsers returns every user.
// GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list users", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.DataResponse{
		Message: "Users retrieved successfully",
		Data:    users,
	})
}
