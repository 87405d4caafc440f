package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/middleware"
)

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.CodeInvalidFields, "Invalid "+name+".", name)
	}
	return id, nil
}

// caller returns the identity attached by the auth middleware.
func caller(r *http.Request) (*middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return nil, apperr.Unauthenticated(apperr.CodeNotAuthenticated, "Not authenticated.")
	}
	return id, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
