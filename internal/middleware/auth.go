package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
	"finwise/internal/models"
	"finwise/internal/token"
)

// TokenCookie is the cookie carrying the session token for browser clients.
const TokenCookie = "token"

// Authenticator resolves a raw token to the live user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, *token.Claims, error)
}

// Identity is the authenticated caller attached to the request context.
// Role is the live role read from the store on this request.
type Identity struct {
	UserID   int64
	Username string
	Role     string
	User     *models.User
	Claims   *token.Claims
}

// HasRole reports whether the caller currently holds one of roles.
func (id *Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller attached by RequireAuth.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

type AuthMiddleware struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthMiddleware(auth Authenticator, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{auth: auth, logger: logger}
}

// TokenFromRequest extracts the raw token. A present Authorization header
// always wins over the cookie, even when the cookie is also set.
func TokenFromRequest(r *http.Request) (string, error) {
	if authz := r.Header.Get("Authorization"); authz != "" {
		scheme, raw, ok := strings.Cut(authz, " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			return "", apperr.Unauthenticated(apperr.CodeInvalidAuthHeader, "Authorization header must be 'Bearer <token>'.")
		}
		return raw, nil
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", apperr.Unauthenticated(apperr.CodeMissingToken, "No token provided.")
}

// RequireAuth rejects the request unless it carries a valid token of an
// existing, unblocked user.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := TokenFromRequest(r)
		if err != nil {
			httpx.RespondError(w, m.logger, err)
			return
		}
		u, claims, err := m.auth.Authenticate(r.Context(), raw)
		if err != nil {
			httpx.RespondError(w, m.logger, err)
			return
		}

		setLoggedUser(r.Context(), u.ID)
		ctx := WithIdentity(r.Context(), &Identity{
			UserID:   u.ID,
			Username: u.Username,
			Role:     u.Role,
			User:     u,
			Claims:   claims,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles admits callers holding at least one of roles. It must run
// after RequireAuth.
func RequireRoles(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	message := "Access denied. Required role(s): " + strings.Join(roles, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				httpx.RespondError(w, logger, apperr.Unauthenticated(apperr.CodeNotAuthenticated, "Not authenticated."))
				return
			}
			if !id.HasRole(roles...) {
				e := apperr.Forbidden(apperr.CodeForbidden, message)
				e.Roles = roles
				httpx.RespondError(w, logger, e)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
