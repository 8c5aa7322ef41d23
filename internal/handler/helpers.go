package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/service"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeAuthError maps the auth service error taxonomy onto HTTP responses.
// Unauthorized responses carry the sub-reason in the error context.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingField), errors.Is(err, service.ErrInvalidField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusBadRequest, "Admin already exists")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Admin not found")
	case errors.Is(err, service.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", reasonContext(err))
	case errors.Is(err, service.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "Token expired, please log in again", reasonContext(err))
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid token", reasonContext(err))
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error: "+err.Error())
	}
}

func reasonContext(err error) map[string]interface{} {
	return map[string]interface{}{"reason": service.Reason(err)}
}
