package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

// MaxPhotoSize bounds profile photo uploads.
const MaxPhotoSize = 5 << 20

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UserService covers profile self-service and administrative user management.
type UserService struct {
	users      UserStore
	photos     PhotoStore
	bcryptCost int
	validate   *validator.Validate
}

func NewUserService(users UserStore, photos PhotoStore, bcryptCost int) *UserService {
	return &UserService{users: users, photos: photos, bcryptCost: bcryptCost, validate: newValidator()}
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// ProfileInput is the user-editable part of a profile.
type ProfileInput struct {
	FirstName            *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName             *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Gender               *string `json:"gender" validate:"omitempty,min=1,max=32"`
	ReceiveNotifications *bool   `json:"receiveNotifications"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (*models.User, error) {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	in.FirstName, in.LastName, in.Gender = trim(in.FirstName), trim(in.LastName), trim(in.Gender)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err, "Invalid profile details.")
	}
	return s.users.UpdateProfile(ctx, id, models.ProfileUpdate{
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Gender:               in.Gender,
		ReceiveNotifications: in.ReceiveNotifications,
	})
}

// SetPhoto stores a new profile photo and points the user at it. The image
// type is sniffed from the content; client-declared types are ignored.
func (s *UserService) SetPhoto(ctx context.Context, id int64, body io.Reader, size int64) (*models.User, error) {
	if size <= 0 || size > MaxPhotoSize {
		return nil, apperr.Validation(apperr.CodeInvalidFields, fmt.Sprintf("Profile photo must be at most %d bytes.", MaxPhotoSize), "photo")
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := photoExtensions[contentType]
	if !ok {
		return nil, apperr.Validation(apperr.CodeInvalidFields, "Profile photo must be a JPEG, PNG or WebP image.", "photo")
	}
	body = io.MultiReader(bytes.NewReader(head), body)

	if _, err := s.users.FindByID(ctx, id); err != nil {
		return nil, err
	}

	key := path.Join(fmt.Sprintf("%d", id), fmt.Sprintf("profile-%d-%s%s", time.Now().Unix(), uuid.NewString()[:8], ext))
	ref, err := s.photos.Put(ctx, key, contentType, body, size)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetPhoto(ctx, id, ref); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// SetBlocked is idempotent.
func (s *UserService) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	return s.users.SetBlocked(ctx, id, blocked)
}

// ToggleBlocked flips the block flag and returns the new state.
func (s *UserService) ToggleBlocked(ctx context.Context, id int64) (bool, error) {
	return s.users.ToggleBlocked(ctx, id)
}

// SetRole is idempotent; unknown roles are rejected.
func (s *UserService) SetRole(ctx context.Context, id int64, role string) error {
	role = strings.TrimSpace(strings.ToLower(role))
	if !models.ValidRole(role) {
		return apperr.Validation(apperr.CodeInvalidFields, "Role must be one of: user, admin.", "role")
	}
	return s.users.SetRole(ctx, id, role)
}

func (s *UserService) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < 8 || len(newPassword) > MaxPasswordBytes {
		return apperr.Validation(apperr.CodeInvalidFields, "Password must be at least 8 characters and at most 72 bytes.", "newPassword")
	}
	hashed, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, id, hashed)
}

// Delete permanently removes a user and everything they submitted.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

func (s *UserService) Activity(ctx context.Context, id int64) ([]models.Activity, error) {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.users.ListActivity(ctx, id)
}
