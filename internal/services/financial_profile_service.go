package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

// CustomExpenseInput is one named recurring cost.
type CustomExpenseInput struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Amount *float64 `json:"amount" validate:"required,min=0"`
}

// FinancialProfileInput is a partial profile: nil fields keep their stored
// value. A present customExpenses list replaces the stored one.
type FinancialProfileInput struct {
	Age            *int                 `json:"age" validate:"omitnil,min=1,max=120"`
	Occupation     *string              `json:"occupation" validate:"omitnil,max=100"`
	FinancialGoals *string              `json:"financialGoals" validate:"omitnil,max=1000"`
	Income         *float64             `json:"income" validate:"omitnil,min=0"`
	Rent           *float64             `json:"rent" validate:"omitnil,min=0"`
	Utilities      *float64             `json:"utilities" validate:"omitnil,min=0"`
	DietPlan       *string              `json:"dietPlan" validate:"omitnil,max=100"`
	TransportCost  *float64             `json:"transportCost" validate:"omitnil,min=0"`
	OtherRecurring *float64             `json:"otherRecurring" validate:"omitnil,min=0"`
	SavingAmount   *float64             `json:"savingAmount" validate:"omitnil,min=0"`
	CustomExpenses []CustomExpenseInput `json:"customExpenses" validate:"max=50,dive"`
}

func (in FinancialProfileInput) applyTo(p *models.FinancialProfile) {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setInt(&p.Age, in.Age)
	setString(&p.Occupation, in.Occupation)
	setString(&p.FinancialGoals, in.FinancialGoals)
	setFloat(&p.Income, in.Income)
	setFloat(&p.Rent, in.Rent)
	setFloat(&p.Utilities, in.Utilities)
	setString(&p.DietPlan, in.DietPlan)
	setFloat(&p.TransportCost, in.TransportCost)
	setFloat(&p.OtherRecurring, in.OtherRecurring)
	setFloat(&p.SavingAmount, in.SavingAmount)
	if in.CustomExpenses != nil {
		p.CustomExpenses = make([]models.CustomExpense, 0, len(in.CustomExpenses))
		for _, e := range in.CustomExpenses {
			p.CustomExpenses = append(p.CustomExpenses, models.CustomExpense{Name: strings.TrimSpace(e.Name), Amount: *e.Amount})
		}
	}
}

// FinancialProfileService manages each user's single financial profile.
type FinancialProfileService struct {
	profiles FinancialProfileStore
	validate *validator.Validate
}

func NewFinancialProfileService(profiles FinancialProfileStore) *FinancialProfileService {
	return &FinancialProfileService{profiles: profiles, validate: newValidator()}
}

func (s *FinancialProfileService) Latest(ctx context.Context, userID int64) (*models.FinancialProfile, error) {
	return s.profiles.Get(ctx, userID)
}

// Save merges in into the user's profile, creating it on first use. created
// reports whether no profile existed before.
func (s *FinancialProfileService) Save(ctx context.Context, userID int64, in FinancialProfileInput) (p *models.FinancialProfile, created bool, err error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, false, validationError(err, "Invalid financial profile.")
	}

	p, err = s.profiles.Get(ctx, userID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		p = &models.FinancialProfile{UserID: userID}
	case err != nil:
		return nil, false, err
	}
	in.applyTo(p)

	created, err = s.profiles.Upsert(ctx, p)
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}
