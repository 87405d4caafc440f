// Package httpx holds the JSON response helpers used by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finwise/internal/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message       string   `json:"message"`
	Code          string   `json:"code,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
	InvalidFields []string `json:"invalidFields,omitempty"`
	RequiredRoles []string `json:"requiredRoles,omitempty"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes the request body into target, rejecting unknown trailing data.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		return apperr.Wrap(apperr.ErrValidation, apperr.CodeInvalidBody, "invalid request body", err)
	}
	return nil
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as an ErrorBody. Server-side failures are logged
// and replaced by a generic message.
func RespondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		}
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "5")
			JSON(w, status, ErrorBody{Message: "service temporarily unavailable, retry later", Code: apperr.CodeUnavailable})
			return
		}
		JSON(w, status, ErrorBody{Message: "internal server error"})
		return
	}

	body := ErrorBody{Message: err.Error()}
	if e, ok := apperr.As(err); ok {
		body.Message = e.Message
		body.Code = e.Code
		body.RequiredRoles = e.Roles
		switch e.Code {
		case apperr.CodeMissingFields:
			body.MissingFields = e.Fields
		default:
			body.InvalidFields = e.Fields
		}
	}
	JSON(w, status, body)
}
