package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

const profileColumns = `user_id, age, occupation, financial_goals, income, rent, utilities, diet_plan,
	transport_cost, other_recurring, saving_amount, custom_expenses, created_at, updated_at`

// profileRow carries the JSONB expense list alongside the scalar columns.
type profileRow struct {
	models.FinancialProfile
	Expenses types.JSONText `db:"custom_expenses"`
}

type FinancialProfileRepository struct {
	db *sqlx.DB
}

func NewFinancialProfileRepository(db *sqlx.DB) *FinancialProfileRepository {
	return &FinancialProfileRepository{db: db}
}

func (r *FinancialProfileRepository) Get(ctx context.Context, userID int64) (*models.FinancialProfile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM financial_profiles WHERE user_id=$1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(apperr.CodeNoFinancialProfile, "No financial profile found.", err)
		}
		return nil, classify("get financial profile", err)
	}
	p := row.FinancialProfile
	if err := row.Expenses.Unmarshal(&p.CustomExpenses); err != nil {
		return nil, fmt.Errorf("store: decode custom expenses: %w", err)
	}
	if p.CustomExpenses == nil {
		p.CustomExpenses = []models.CustomExpense{}
	}
	return &p, nil
}

// Upsert writes p as the user's only profile and reports whether the row was
// newly inserted. Timestamps are set by the database and copied back into p.
func (r *FinancialProfileRepository) Upsert(ctx context.Context, p *models.FinancialProfile) (bool, error) {
	expenses := p.CustomExpenses
	if expenses == nil {
		expenses = []models.CustomExpense{}
	}
	raw, err := json.Marshal(expenses)
	if err != nil {
		return false, fmt.Errorf("store: encode custom expenses: %w", err)
	}

	var inserted bool
	err = r.db.QueryRowxContext(ctx, `INSERT INTO financial_profiles (user_id, age, occupation, financial_goals, income, rent,
			utilities, diet_plan, transport_cost, other_recurring, saving_amount, custom_expenses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			occupation = EXCLUDED.occupation,
			financial_goals = EXCLUDED.financial_goals,
			income = EXCLUDED.income,
			rent = EXCLUDED.rent,
			utilities = EXCLUDED.utilities,
			diet_plan = EXCLUDED.diet_plan,
			transport_cost = EXCLUDED.transport_cost,
			other_recurring = EXCLUDED.other_recurring,
			saving_amount = EXCLUDED.saving_amount,
			custom_expenses = EXCLUDED.custom_expenses,
			updated_at = NOW()
		RETURNING created_at, updated_at, (xmax = 0) AS inserted`,
		p.UserID, p.Age, p.Occupation, p.FinancialGoals, p.Income, p.Rent, p.Utilities, p.DietPlan,
		p.TransportCost, p.OtherRecurring, p.SavingAmount, string(raw),
	).Scan(&p.CreatedAt, &p.UpdatedAt, &inserted)
	if err != nil {
		return false, classify("upsert financial profile", err)
	}
	p.CustomExpenses = expenses
	return inserted, nil
}
