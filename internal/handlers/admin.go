package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"finwise/internal/httpx"
	"finwise/internal/services"
)

// AdminHandler serves user management. Routes are mounted behind
// RequireRoles(admin), so handlers do not re-check the role.
type AdminHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewAdminHandler(users *services.UserService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, logger: orNop(logger)}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserDTOs(users))
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToUserDTO(u))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully."})
}

// SetBlocked sets the block flag to the requested value.
func (h *AdminHandler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var body struct {
		Blocked *bool `json:"blocked"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if body.Blocked == nil {
		httpx.RespondError(w, h.logger, missingField("blocked"))
		return
	}
	if err := h.users.SetBlocked(r.Context(), id, *body.Blocked); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": blockMessage(*body.Blocked), "blocked": *body.Blocked})
}

func (h *AdminHandler) ToggleBlocked(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	blocked, err := h.users.ToggleBlocked(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": blockMessage(blocked), "blocked": blocked})
}

func blockMessage(blocked bool) string {
	if blocked {
		return "User blocked successfully."
	}
	return "User unblocked successfully."
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if body.Role == "" {
		httpx.RespondError(w, h.logger, missingField("role"))
		return
	}
	if err := h.users.SetRole(r.Context(), id, body.Role); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "User role updated successfully."})
}

func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var body struct {
		NewPassword string `json:"newPassword"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if body.NewPassword == "" {
		httpx.RespondError(w, h.logger, missingField("newPassword"))
		return
	}
	if err := h.users.ResetPassword(r.Context(), id, body.NewPassword); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully."})
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	log, err := h.users.Activity(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, log)
}
