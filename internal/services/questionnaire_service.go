package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

// RequiredFields lists every questionnaire answer, in reporting order.
var RequiredFields = []string{
	"age",
	"employmentStatus",
	"salary",
	"homeOwnership",
	"hasDebt",
	"lifestyle",
	"dependents",
	"financialGoals",
	"riskTolerance",
	"investmentApproach",
	"emergencyPreparedness",
	"financialTracking",
	"futureSecurity",
	"spendingDiscipline",
	"assetAllocation",
	"riskTaking",
}

// SubmissionInput is the raw questionnaire payload. Pointers distinguish an
// absent answer from a zero one.
type SubmissionInput struct {
	Age                   *int     `json:"age" validate:"required,min=1,max=120"`
	EmploymentStatus      *string  `json:"employmentStatus" validate:"required,max=100"`
	Salary                *float64 `json:"salary" validate:"required,min=0"`
	HomeOwnership         *string  `json:"homeOwnership" validate:"required,max=100"`
	HasDebt               *string  `json:"hasDebt" validate:"required,max=100"`
	Lifestyle             *string  `json:"lifestyle" validate:"required,max=100"`
	Dependents            *string  `json:"dependents" validate:"required,max=100"`
	FinancialGoals        *string  `json:"financialGoals" validate:"required,max=1000"`
	RiskTolerance         *int     `json:"riskTolerance" validate:"required,min=1,max=10"`
	InvestmentApproach    *int     `json:"investmentApproach" validate:"required,min=1,max=10"`
	EmergencyPreparedness *int     `json:"emergencyPreparedness" validate:"required,min=1,max=10"`
	FinancialTracking     *int     `json:"financialTracking" validate:"required,min=1,max=10"`
	FutureSecurity        *int     `json:"futureSecurity" validate:"required,min=1,max=10"`
	SpendingDiscipline    *int     `json:"spendingDiscipline" validate:"required,min=1,max=10"`
	AssetAllocation       *int     `json:"assetAllocation" validate:"required,min=1,max=10"`
	RiskTaking            *int     `json:"riskTaking" validate:"required,min=1,max=10"`
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// Missing returns the names of absent or blank answers in RequiredFields order.
func (in SubmissionInput) Missing() []string {
	present := map[string]bool{
		"age":                   in.Age != nil,
		"employmentStatus":      !blank(in.EmploymentStatus),
		"salary":                in.Salary != nil,
		"homeOwnership":         !blank(in.HomeOwnership),
		"hasDebt":               !blank(in.HasDebt),
		"lifestyle":             !blank(in.Lifestyle),
		"dependents":            !blank(in.Dependents),
		"financialGoals":        !blank(in.FinancialGoals),
		"riskTolerance":         in.RiskTolerance != nil,
		"investmentApproach":    in.InvestmentApproach != nil,
		"emergencyPreparedness": in.EmergencyPreparedness != nil,
		"financialTracking":     in.FinancialTracking != nil,
		"futureSecurity":        in.FutureSecurity != nil,
		"spendingDiscipline":    in.SpendingDiscipline != nil,
		"assetAllocation":       in.AssetAllocation != nil,
		"riskTaking":            in.RiskTaking != nil,
	}
	var missing []string
	for _, f := range RequiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// answers must only be called once Missing reports nothing.
func (in SubmissionInput) answers() models.Answers {
	return models.Answers{
		Age:                   *in.Age,
		EmploymentStatus:      strings.TrimSpace(*in.EmploymentStatus),
		Salary:                *in.Salary,
		HomeOwnership:         strings.TrimSpace(*in.HomeOwnership),
		HasDebt:               strings.TrimSpace(*in.HasDebt),
		Lifestyle:             strings.TrimSpace(*in.Lifestyle),
		Dependents:            strings.TrimSpace(*in.Dependents),
		FinancialGoals:        strings.TrimSpace(*in.FinancialGoals),
		RiskTolerance:         *in.RiskTolerance,
		InvestmentApproach:    *in.InvestmentApproach,
		EmergencyPreparedness: *in.EmergencyPreparedness,
		FinancialTracking:     *in.FinancialTracking,
		FutureSecurity:        *in.FutureSecurity,
		SpendingDiscipline:    *in.SpendingDiscipline,
		AssetAllocation:       *in.AssetAllocation,
		RiskTaking:            *in.RiskTaking,
	}
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// QuestionnaireService enforces the once-per-calendar-day submission gate.
type QuestionnaireService struct {
	subs     SubmissionStore
	loc      *time.Location
	now      func() time.Time
	validate *validator.Validate
}

// NewQuestionnaireService builds the gate. loc defines the calendar day; nil means UTC.
func NewQuestionnaireService(subs SubmissionStore, loc *time.Location) *QuestionnaireService {
	if loc == nil {
		loc = time.UTC
	}
	return &QuestionnaireService{subs: subs, loc: loc, now: time.Now, validate: newValidator()}
}

// SetClock replaces the time source.
func (s *QuestionnaireService) SetClock(now func() time.Time) { s.now = now }

var errAlreadySubmitted = apperr.Conflict(apperr.CodeAlreadySubmittedToday, "You have already submitted a questionnaire today.")

// Submit stores a new submission for userID unless one already exists for
// the current calendar day. The store's (user, day) uniqueness closes the
// window between the existence check and the insert.
func (s *QuestionnaireService) Submit(ctx context.Context, userID int64, in SubmissionInput) (*models.Submission, error) {
	now := s.now().In(s.loc)
	day := StartOfDay(now, s.loc)

	exists, err := s.subs.ExistsForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAlreadySubmitted
	}

	if missing := in.Missing(); len(missing) > 0 {
		return nil, apperr.Validation(apperr.CodeMissingFields, "Missing required fields.", missing...)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err, "Invalid questionnaire answers.")
	}

	sub := &models.Submission{
		UserID:    userID,
		Answers:   in.answers(),
		Day:       day,
		CreatedAt: now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, errAlreadySubmitted
		}
		return nil, err
	}
	return sub, nil
}

// Latest returns the user's most recent submission.
func (s *QuestionnaireService) Latest(ctx context.Context, userID int64) (*models.Submission, error) {
	return s.subs.Latest(ctx, userID)
}

// ListByUser returns all submissions of userID, newest first.
func (s *QuestionnaireService) ListByUser(ctx context.Context, userID int64) ([]models.Submission, error) {
	return s.subs.ListByUser(ctx, userID)
}
