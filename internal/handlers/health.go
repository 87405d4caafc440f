package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler reports the server healthy; db may be nil when running
// on the in-memory store.
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: orNop(logger)}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			httpx.RespondError(w, h.logger, apperr.Unavailable(err))
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
