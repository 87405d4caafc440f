package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"finwise/internal/httpx"
	"finwise/internal/services"
)

type FinancialProfileHandler struct {
	profiles *services.FinancialProfileService
	logger   *zap.Logger
}

func NewFinancialProfileHandler(p *services.FinancialProfileService, logger *zap.Logger) *FinancialProfileHandler {
	return &FinancialProfileHandler{profiles: p, logger: orNop(logger)}
}

// Submit godoc
// @Summary Create or update the caller's financial profile
// @Description Only the provided fields change; the first save creates the profile.
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.FinancialProfile "Profile updated"
// @Success 201 {object} models.FinancialProfile "Profile created"
// @Failure 400 {object} httpx.ErrorBody
// @Router /profile/submit [post]
func (h *FinancialProfileHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in services.FinancialProfileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, created, err := h.profiles.Save(r.Context(), id.UserID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	status, message := http.StatusOK, "Profile updated"
	if created {
		status, message = http.StatusCreated, "Profile created"
	}
	httpx.JSON(w, status, map[string]any{"message": message, "data": p})
}

func (h *FinancialProfileHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	p, err := h.profiles.Latest(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
