package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finwise/internal/httpx"
	"finwise/internal/models"
	"finwise/internal/services"
	"finwise/internal/store/memstore"
	"finwise/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	auth   *services.AuthService
	users  *memstore.Users
	issuer *token.Issuer
	mw     *AuthMiddleware
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memstore.New().Users()
	issuer := token.NewIssuer([]byte(testSecret), time.Hour)
	auth := services.NewAuthService(users, issuer, nil, bcrypt.MinCost, nil)
	return &fixture{auth: auth, users: users, issuer: issuer, mw: NewAuthMiddleware(auth, nil)}
}

func (f *fixture) signup(t *testing.T, username string) *services.Session {
	t.Helper()
	s, err := f.auth.Signup(context.Background(), services.SignupInput{
		Username: username, Email: username + "@example.com", Password: "correct-horse",
		FirstName: "Test", LastName: "User", Gender: "other",
	})
	require.NoError(t, err)
	return s
}

// echoIdentity writes the caller seen by the protected handler.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "no identity", http.StatusInternalServerError)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id.UserID, "role": id.Role, "username": id.Username})
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequireAuth_Rejections(t *testing.T) {
	f := newFixture(t)
	s := f.signup(t, "alice")

	past := time.Now().Add(-2 * time.Hour)
	expired, _, err := token.NewIssuer([]byte(testSecret), time.Hour, token.WithClock(func() time.Time { return past })).Issue(s.User)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		code   string
	}{
		{name: "no token", code: "missing_token"},
		{name: "garbage token", header: "Bearer garbage", code: "invalid_token"},
		{name: "expired token", header: "Bearer " + expired, code: "token_expired"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", code: "invalid_auth_header"},
		{name: "bearer without token", header: "Bearer ", code: "invalid_auth_header"},
		{name: "bad header beats good cookie", header: "Bearer garbage", cookie: s.Token, code: "invalid_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			f.mw.RequireAuth(echoIdentity).ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestRequireAuth_HeaderOrCookie(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	t.Run("cookie only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: alice.Token})
		rec := httptest.NewRecorder()
		f.mw.RequireAuth(echoIdentity).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"username":"alice"`)
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+bob.Token)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: alice.Token})
		rec := httptest.NewRecorder()
		f.mw.RequireAuth(echoIdentity).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"username":"bob"`)
	})
}

func TestRequireAuth_SubjectGoneOrBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	require.NoError(t, f.users.Delete(ctx, alice.User.ID))
	require.NoError(t, f.users.SetBlocked(ctx, bob.User.ID, true))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	rec := httptest.NewRecorder()
	f.mw.RequireAuth(echoIdentity).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "user_not_found", decodeError(t, rec).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+bob.Token)
	rec = httptest.NewRecorder()
	f.mw.RequireAuth(echoIdentity).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "account_blocked", decodeError(t, rec).Code)
}

func TestRequireRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signup(t, "alice")
	admin := f.signup(t, "root")
	require.NoError(t, f.users.SetRole(ctx, admin.User.ID, models.RoleAdmin))

	protected := f.mw.RequireAuth(RequireRoles(nil, models.RoleAdmin)(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "forbidden", body.Code)
	require.Equal(t, []string{"admin"}, body.RequiredRoles)
	require.Equal(t, "Access denied. Required role(s): admin", body.Message)

	// The admin's token still says "user"; the live role decides.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin.Token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Demotion takes effect on the next request.
	require.NoError(t, f.users.SetRole(ctx, admin.User.ID, models.RoleUser))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoles_NoIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRoles(nil, models.RoleUser, models.RoleAdmin)(echoIdentity).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "not_authenticated", decodeError(t, rec).Code)
}
