package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

const submissionColumns = `id, user_id, age, employment_status, salary, home_ownership, has_debt, lifestyle,
	dependents, financial_goals, risk_tolerance, investment_approach, emergency_preparedness,
	financial_tracking, future_security, spending_discipline, asset_allocation, risk_taking,
	submission_day, created_at`

// dateOnly formats the calendar date of t in t's own location, so the DATE
// column always receives the gate-timezone day.
func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}

type QuestionnaireRepository struct {
	db *sqlx.DB
}

func NewQuestionnaireRepository(db *sqlx.DB) *QuestionnaireRepository {
	return &QuestionnaireRepository{db: db}
}

// ExistsForDay reports whether userID already has a submission counted against day.
func (r *QuestionnaireRepository) ExistsForDay(ctx context.Context, userID int64, day time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowxContext(ctx, `SELECT EXISTS (SELECT 1 FROM questionnaires WHERE user_id=$1 AND submission_day=$2)`,
		userID, dateOnly(day)).Scan(&exists)
	if err != nil {
		return false, classify("check submission", err)
	}
	return exists, nil
}

// Create inserts s. The (user_id, submission_day) unique constraint turns a
// concurrent second insert into an already_submitted_today conflict.
func (r *QuestionnaireRepository) Create(ctx context.Context, s *models.Submission) error {
	a := s.Answers
	err := r.db.QueryRowxContext(ctx, `INSERT INTO questionnaires (user_id, age, employment_status, salary, home_ownership,
			has_debt, lifestyle, dependents, financial_goals, risk_tolerance, investment_approach, emergency_preparedness,
			financial_tracking, future_security, spending_discipline, asset_allocation, risk_taking, submission_day, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`,
		s.UserID, a.Age, a.EmploymentStatus, a.Salary, a.HomeOwnership, a.HasDebt, a.Lifestyle, a.Dependents,
		a.FinancialGoals, a.RiskTolerance, a.InvestmentApproach, a.EmergencyPreparedness, a.FinancialTracking,
		a.FutureSecurity, a.SpendingDiscipline, a.AssetAllocation, a.RiskTaking, dateOnly(s.Day), s.CreatedAt,
	).Scan(&s.ID)
	return classify("create submission", err)
}

// Latest returns the most recently created submission of userID.
func (r *QuestionnaireRepository) Latest(ctx context.Context, userID int64) (*models.Submission, error) {
	var s models.Submission
	err := r.db.GetContext(ctx, &s, `SELECT `+submissionColumns+` FROM questionnaires
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(apperr.CodeNoQuestionnaire, "No questionnaire found.", err)
		}
		return nil, classify("latest submission", err)
	}
	return &s, nil
}

// ListByUser returns every submission of userID, newest first.
func (r *QuestionnaireRepository) ListByUser(ctx context.Context, userID int64) ([]models.Submission, error) {
	out := []models.Submission{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+submissionColumns+` FROM questionnaires
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, classify("list submissions", err)
	}
	return out, nil
}
