package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"finwise/internal/models"
)

type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM questionnaires WHERE user_id=$1`, userID); err != nil {
		return 0, classify("count submissions", err)
	}
	return n, nil
}

// RiskTolerance groups submissions by risk tolerance, for one user when
// userID is non-nil and across all users otherwise.
func (r *AnalyticsRepository) RiskTolerance(ctx context.Context, userID *int64) ([]models.Bucket, error) {
	out := []models.Bucket{}
	var err error
	if userID != nil {
		err = r.db.SelectContext(ctx, &out, `SELECT risk_tolerance::text AS value, COUNT(*) AS count
			FROM questionnaires WHERE user_id=$1
			GROUP BY risk_tolerance ORDER BY count DESC, risk_tolerance`, *userID)
	} else {
		err = r.db.SelectContext(ctx, &out, `SELECT risk_tolerance::text AS value, COUNT(*) AS count
			FROM questionnaires
			GROUP BY risk_tolerance ORDER BY count DESC, risk_tolerance`)
	}
	if err != nil {
		return nil, classify("risk tolerance breakdown", err)
	}
	return out, nil
}

func (r *AnalyticsRepository) Lifestyle(ctx context.Context) ([]models.Bucket, error) {
	out := []models.Bucket{}
	err := r.db.SelectContext(ctx, &out, `SELECT lifestyle AS value, COUNT(*) AS count
		FROM questionnaires GROUP BY lifestyle ORDER BY count DESC, lifestyle`)
	if err != nil {
		return nil, classify("lifestyle breakdown", err)
	}
	return out, nil
}

// Overview counts users and submissions; today and weekStart are gate-timezone days.
func (r *AnalyticsRepository) Overview(ctx context.Context, today, weekStart time.Time) (*models.Overview, error) {
	var o models.Overview
	err := r.db.GetContext(ctx, &o, `SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE role = 'admin') AS admins,
			(SELECT COUNT(*) FROM users WHERE blocked) AS blocked_users,
			(SELECT COUNT(*) FROM questionnaires) AS total_submissions,
			(SELECT COUNT(*) FROM questionnaires WHERE submission_day = $1) AS submissions_today,
			(SELECT COUNT(DISTINCT user_id) FROM questionnaires WHERE submission_day >= $2) AS active_users_this_week`,
		dateOnly(today), dateOnly(weekStart))
	if err != nil {
		return nil, classify("overview", err)
	}
	return &o, nil
}
