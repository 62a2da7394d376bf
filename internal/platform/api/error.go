package api

import (
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response. Detail carries the
// human readable message clients match on.
type ErrorResponse struct {
	Detail    string         `json:"detail"`
	Code      string         `json:"code"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, detail, requestID string, details map[string]any) {
	WriteJSON(w, status, ErrorResponse{Detail: detail, Code: code, Details: details, RequestID: requestID})
}

// Convenience helpers
func BadRequest(w http.ResponseWriter, code, detail, requestID string, details map[string]any) {
	WriteError(w, http.StatusBadRequest, code, detail, requestID, details)
}

func NotFound(w http.ResponseWriter, code, detail, requestID string) {
	WriteError(w, http.StatusNotFound, code, detail, requestID, nil)
}

func RateLimited(w http.ResponseWriter, code, detail, requestID string, details map[string]any) {
	WriteError(w, http.StatusTooManyRequests, code, detail, requestID, details)
}

// Internal writes a 500. detail must be a generic message; callers log the cause.
func Internal(w http.ResponseWriter, detail, requestID string) {
	if detail == "" {
		detail = "Internal server error"
	}
	WriteError(w, http.StatusInternalServerError, "INTERNAL", detail, requestID, nil)
}
