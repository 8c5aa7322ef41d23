package handler

import (
	"net/http"

	"github.com/sentinelops/incidentdesk/internal/openapi"
)

// OpenAPIHandler serves the generated OpenAPI document.
type OpenAPIHandler struct {
	baseURL string
}

// NewOpenAPIHandler creates a new OpenAPIHandler. baseURL is advertised as
// the document's server URL; when empty, it is derived from each request.
func NewOpenAPIHandler(baseURL string) *OpenAPIHandler {
	return &OpenAPIHandler{baseURL: baseURL}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	baseURL := h.baseURL
	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		baseURL = scheme + "://" + r.Host
	}
	writeJSON(w, http.StatusOK, openapi.Generate(baseURL))
}
