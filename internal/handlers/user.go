package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
	"finwise/internal/services"
)

type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: orNop(logger)}
}

// GetMe returns the current user's profile
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	u, err := h.users.Get(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToUserDTO(u))
}

// UpdateMe updates provided fields on the current user's profile
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in services.ProfileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), id.UserID, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToUserDTO(u))
}

// UploadPhoto accepts a multipart "photo" part and stores it as the profile photo.
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(services.MaxPhotoSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.RespondError(w, h.logger, apperr.Validation(apperr.CodeInvalidFields, "Profile photo is too large.", "photo"))
			return
		}
		httpx.RespondError(w, h.logger, apperr.Wrap(apperr.ErrValidation, apperr.CodeInvalidBody, "invalid multipart body", err))
		return
	}
	// r is the copy made by RequireAuth, so the server never cleans up its
	// spooled parts.
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	file, header, err := r.FormFile("photo")
	if err != nil {
		httpx.RespondError(w, h.logger, apperr.Validation(apperr.CodeMissingFields, "Missing required fields.", "photo"))
		return
	}
	defer file.Close()

	u, err := h.users.SetPhoto(r.Context(), id.UserID, file, header.Size)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToUserDTO(u))
}
