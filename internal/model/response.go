package model

// DataResponse is the envelope used by read endpoints that return a payload
// alongside a human-readable message.
type DataResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// IncidentPage is the response for a paginated incident listing.
type IncidentPage struct {
	Success    bool       `json:"success"`
	Data       []Incident `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
