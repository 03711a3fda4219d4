package oai

import (
	"net/http"
	"strings"
)

// ErrorEnvelope is the OpenAI-shaped error body: {"error": {...}}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the human-readable message plus machine-readable type
// and code.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}

// NewErrorEnvelope builds an envelope for the given status. An empty code
// falls back to the snake_cased HTTP status text.
func NewErrorEnvelope(statusCode int, message, code string) ErrorEnvelope {
	if strings.TrimSpace(code) == "" {
		code = strings.ToLower(strings.ReplaceAll(http.StatusText(statusCode), " ", "_"))
	}
	return ErrorEnvelope{
		Error: ErrorBody{
			Message: message,
			Type:    ErrorTypeFromStatus(statusCode),
			Code:    code,
		},
	}
}

// ErrorTypeFromStatus maps an HTTP status to the OpenAI error type tag.
func ErrorTypeFromStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return "invalid_request_error"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication_error"
	case http.StatusConflict:
		return "conflict_error"
	case http.StatusTooManyRequests:
		return "rate_limit_error"
	default:
		if statusCode >= 500 {
			return "server_error"
		}
		return "invalid_request_error"
	}
}

// RouteNotFound is the flat envelope returned for unmatched routes. Its
// shape predates the structured envelope and is kept for compatibility
// with clients probing the endpoint surface.
type RouteNotFound struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
