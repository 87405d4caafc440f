package handlers

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"finwise/internal/httpx"
	"finwise/internal/middleware"
	"finwise/internal/services"
)

type AuthHandler struct {
	auth         *services.AuthService
	logger       *zap.Logger
	secureCookie bool
}

func NewAuthHandler(auth *services.AuthService, logger *zap.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, logger: orNop(logger), secureCookie: secureCookie}
}

type sessionResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, s *services.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.Claims.ExpiresAt.Time,
		MaxAge:   int(h.auth.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// Signup godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Success 201 {object} sessionResponse
// @Failure 400 {object} httpx.ErrorBody
// @Router /users/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	s, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, s)
	httpx.JSON(w, http.StatusCreated, sessionResponse{Token: s.Token, User: ToUserDTO(s.User)})
}

// Login godoc
// @Summary Log in with email or username
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} sessionResponse
// @Failure 401 {object} httpx.ErrorBody
// @Failure 403 {object} httpx.ErrorBody "Account blocked"
// @Router /users/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	s, err := h.auth.Login(r.Context(), identifier, req.Password, clientIP(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, s)
	httpx.JSON(w, http.StatusOK, sessionResponse{Token: s.Token, User: ToUserDTO(s.User)})
}

// Logout always succeeds; a presented valid token is revoked when a
// revocation list is configured.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if raw, err := middleware.TokenFromRequest(r); err == nil {
		if err := h.auth.Logout(r.Context(), raw); err != nil {
			h.logger.Warn("revoke token on logout", zap.Error(err))
		}
	}
	h.clearTokenCookie(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully."})
}

// CheckAuth returns the caller resolved by RequireAuth.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": ToUserDTO(id.User)})
}

// clientIP prefers the address rewritten by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
