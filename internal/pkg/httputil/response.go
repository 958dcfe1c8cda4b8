package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ignite/chat-gateway/internal/domain"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// JSON writes a JSON response with the given status code. Content-Type is
// set automatically; encode failures are logged, not surfaced.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Accepted writes a 202 response with the given data. Used for operations
// that register background work and return before it finishes.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, data)
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		JSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON: " + err.Error(),
			Kind:  "invalid_request",
		})
		return false
	}
	return true
}

// DomainError maps the shared error taxonomy to HTTP status codes and
// writes the standard envelope. Unknown errors become 500 with a generic
// message (never leak internals).
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		JSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "not_found"})
	case errors.Is(err, domain.ErrAccessDenied):
		JSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error(), Kind: "access_denied"})
	case errors.Is(err, domain.ErrInvalidRequest):
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid_request"})
	case errors.Is(err, domain.ErrConflict):
		JSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "conflict"})
	case errors.Is(err, domain.ErrTimeout):
		JSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Kind: "timeout"})
	case errors.Is(err, domain.ErrAuthFailed):
		JSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Kind: "authentication_failed"})
	case errors.Is(err, domain.ErrTransport):
		JSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error(), Kind: "transport_failure"})
	default:
		log.Printf("[httputil] internal error: %v", err)
		JSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
