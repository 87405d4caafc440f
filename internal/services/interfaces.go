package services

import (
	"context"
	"io"
	"time"

	"finwise/internal/models"
)

// UserStore is the credential store the services depend on.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int64, p models.ProfileUpdate) (*models.User, error)
	SetPhoto(ctx context.Context, id int64, ref string) error
	SetBlocked(ctx context.Context, id int64, blocked bool) error
	ToggleBlocked(ctx context.Context, id int64) (bool, error)
	SetRole(ctx context.Context, id int64, role string) error
	SetPassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	RecordActivity(ctx context.Context, id int64, action string, at time.Time) error
	RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error
	ListActivity(ctx context.Context, id int64) ([]models.Activity, error)
}

// SubmissionStore persists questionnaire submissions. Create must reject a
// second submission for the same (user, day) with an
// already_submitted_today conflict.
type SubmissionStore interface {
	ExistsForDay(ctx context.Context, userID int64, day time.Time) (bool, error)
	Create(ctx context.Context, s *models.Submission) error
	Latest(ctx context.Context, userID int64) (*models.Submission, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Submission, error)
}

type AnalyticsStore interface {
	CountByUser(ctx context.Context, userID int64) (int, error)
	RiskTolerance(ctx context.Context, userID *int64) ([]models.Bucket, error)
	Lifestyle(ctx context.Context) ([]models.Bucket, error)
	Overview(ctx context.Context, today, weekStart time.Time) (*models.Overview, error)
}

// PhotoStore saves profile photos and returns the reference stored on the user.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// FinancialProfileStore keeps at most one financial profile per user.
type FinancialProfileStore interface {
	Get(ctx context.Context, userID int64) (*models.FinancialProfile, error)
	// Upsert reports whether the profile was newly created.
	Upsert(ctx context.Context, p *models.FinancialProfile) (bool, error)
}
