package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
	"finwise/internal/models"
	"finwise/internal/services"
)

type QuestionnaireHandler struct {
	questionnaires *services.QuestionnaireService
	logger         *zap.Logger
}

func NewQuestionnaireHandler(q *services.QuestionnaireService, logger *zap.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{questionnaires: q, logger: orNop(logger)}
}

// Submit godoc
// @Summary Submit today's questionnaire
// @Description One submission per user per calendar day.
// @Tags questionnaire
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} SubmissionDTO
// @Failure 400 {object} httpx.ErrorBody "Already submitted today or missing fields"
// @Router /questionnaire/submit [post]
func (h *QuestionnaireHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in services.SubmissionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sub, err := h.questionnaires.Submit(r.Context(), id.UserID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Questionnaire submitted successfully.",
		"data":    ToSubmissionDTO(sub),
	})
}

func (h *QuestionnaireHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	sub, err := h.questionnaires.Latest(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToSubmissionDTO(sub))
}

// ListByUser is open to admins and to the user whose submissions are requested.
func (h *QuestionnaireHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if userID != id.UserID && !id.HasRole(models.RoleAdmin) {
		httpx.RespondError(w, h.logger, apperr.Forbidden(apperr.CodeForbidden, "Access denied."))
		return
	}
	subs, err := h.questionnaires.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	out := make([]SubmissionDTO, 0, len(subs))
	for i := range subs {
		out = append(out, ToSubmissionDTO(&subs[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func missingField(name string) error {
	return apperr.Validation(apperr.CodeMissingFields, "Missing required fields.", name)
}
