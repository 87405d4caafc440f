package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/models"
	"finwise/internal/token"
)

// AuthService handles registration, login and token resolution.
type AuthService struct {
	users       UserStore
	issuer      *token.Issuer
	revocations token.RevocationList
	bcryptCost  int
	now         func() time.Time
	logger      *zap.Logger
	validate    *validator.Validate
}

// NewAuthService wires the auth flow. revocations may be nil, in which case
// logout only clears the client cookie.
func NewAuthService(users UserStore, issuer *token.Issuer, revocations token.RevocationList, bcryptCost int, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       users,
		issuer:      issuer,
		revocations: revocations,
		bcryptCost:  bcryptCost,
		now:         time.Now,
		logger:      logger,
		validate:    newValidator(),
	}
}

// SignupInput is the registration payload.
type SignupInput struct {
	Username  string `json:"username" validate:"required,min=3,max=32,excludesall=@"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,bcryptlen"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Gender    string `json:"gender" validate:"required,max=32"`
}

// Session is the outcome of a successful signup or login.
type Session struct {
	Token  string
	Claims *token.Claims
	User   *models.User
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	u, err := s.CreateAccount(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.users.RecordActivity(ctx, u.ID, models.ActionSignup, s.now()); err != nil {
		s.logger.Warn("record signup activity", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return s.issue(u)
}

// CreateAccount validates in and stores a new user holding role in a single
// write. It issues no token.
func (s *AuthService) CreateAccount(ctx context.Context, in SignupInput, role string) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = strings.TrimSpace(in.Gender)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err, "Invalid signup details.")
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validation(apperr.CodeInvalidFields, "Role must be one of: user, admin.", "role")
	}

	hashed, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:             in.Username,
		Email:                in.Email,
		PasswordHash:         hashed,
		Role:                 role,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Gender:               in.Gender,
		ReceiveNotifications: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials first and only then the block flag, so the block
// reason is never revealed to a caller without the password.
func (s *AuthService) Login(ctx context.Context, identifier, password, ip string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.Validation(apperr.CodeInvalidFields, "Email and password are required.", "email", "password")
	}

	u, err := s.users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated(apperr.CodeInvalidCredentials, "Invalid credentials")
		}
		return nil, err
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, apperr.Unauthenticated(apperr.CodeInvalidCredentials, "Invalid credentials")
	}
	if u.Blocked {
		return nil, apperr.Forbidden(apperr.CodeAccountBlocked, "Your account has been blocked by the admin.")
	}

	at := s.now()
	if err := s.users.RecordLogin(ctx, u.ID, at, ip); err != nil {
		s.logger.Warn("record login metadata", zap.Int64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin, u.LastIP = &at, &ip
	}
	return s.issue(u)
}

// Authenticate resolves a raw token to the live user record. The role and
// block flag come from the store, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, *token.Claims, error) {
	claims, err := s.issuer.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, nil, apperr.Unauthenticated(apperr.CodeTokenExpired, "Session expired, please log in again.")
		}
		return nil, nil, apperr.Unauthenticated(apperr.CodeInvalidToken, "Invalid token")
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, apperr.Unauthenticated(apperr.CodeTokenRevoked, "Session has been logged out.")
		}
	}

	id, _ := claims.UserID()
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, apperr.Unauthenticated(apperr.CodeUserNotFound, "User no longer exists.")
		}
		return nil, nil, err
	}
	if u.Blocked {
		return nil, nil, apperr.Forbidden(apperr.CodeAccountBlocked, "Your account has been blocked by the admin.")
	}
	return u, claims, nil
}

// Logout revokes raw until its natural expiry. Invalid or expired tokens are
// ignored: there is nothing left to revoke.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if s.revocations == nil || raw == "" {
		return nil
	}
	claims, err := s.issuer.Verify(raw)
	if err != nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// TokenTTL is the lifetime of issued tokens, used for cookie expiry.
func (s *AuthService) TokenTTL() time.Duration {
	return s.issuer.TTL()
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	signed, claims, err := s.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, Claims: claims, User: u}, nil
}
