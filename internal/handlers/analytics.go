package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"finwise/internal/httpx"
	"finwise/internal/services"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(a *services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a, logger: orNop(logger)}
}

// UserSummary returns the caller's submission count and risk tolerance breakdown.
func (h *AnalyticsHandler) UserSummary(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	out, err := h.analytics.UserSummary(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *AnalyticsHandler) Lifestyle(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.Lifestyle(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *AnalyticsHandler) RiskTolerance(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.RiskTolerance(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Statistics godoc
// @Summary Get admin overview
// @Description Returns user and submission totals (admin only)
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Overview
// @Failure 403 {object} httpx.ErrorBody
// @Router /analytics/statistics [get]
func (h *AnalyticsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	out, err := h.analytics.Overview(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
