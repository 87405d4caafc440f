package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

func newProfileSvc(t *testing.T) (*FinancialProfileService, *models.User) {
	t.Helper()
	mem, users := newMem()
	u := seedUser(t, users, "alice", models.RoleUser)
	return NewFinancialProfileService(mem.Profiles()), u
}

func TestFinancialProfile_CreateThenMerge(t *testing.T) {
	ctx := context.Background()
	svc, u := newProfileSvc(t)

	_, err := svc.Latest(ctx, u.ID)
	requireCode(t, err, apperr.ErrNotFound, apperr.CodeNoFinancialProfile)

	p, created, err := svc.Save(ctx, u.ID, FinancialProfileInput{
		Age:            ptr(31),
		Income:         ptr(5000.0),
		DietPlan:       ptr("  vegetarian "),
		CustomExpenses: []CustomExpenseInput{{Name: "gym", Amount: ptr(35.0)}},
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "vegetarian", p.DietPlan)

	p, created, err = svc.Save(ctx, u.ID, FinancialProfileInput{SavingAmount: ptr(0.0)})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 31, p.Age)
	require.Equal(t, 5000.0, p.Income)
	require.Equal(t, []models.CustomExpense{{Name: "gym", Amount: 35}}, p.CustomExpenses)

	// An explicit empty list clears the expenses.
	p, _, err = svc.Save(ctx, u.ID, FinancialProfileInput{CustomExpenses: []CustomExpenseInput{}})
	require.NoError(t, err)
	require.Empty(t, p.CustomExpenses)

	got, err := svc.Latest(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 5000.0, got.Income)
	require.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestFinancialProfile_Validation(t *testing.T) {
	ctx := context.Background()
	svc, u := newProfileSvc(t)

	_, _, err := svc.Save(ctx, u.ID, FinancialProfileInput{Age: ptr(0), Rent: ptr(-5.0)})
	requireCode(t, err, apperr.ErrValidation, apperr.CodeInvalidFields)
	e, _ := apperr.As(err)
	require.ElementsMatch(t, []string{"age", "rent"}, e.Fields)

	_, _, err = svc.Save(ctx, u.ID, FinancialProfileInput{CustomExpenses: []CustomExpenseInput{{Name: "car"}}})
	requireCode(t, err, apperr.ErrValidation, apperr.CodeInvalidFields)

	_, err = svc.Latest(ctx, u.ID)
	requireCode(t, err, apperr.ErrNotFound, apperr.CodeNoFinancialProfile)
}

func TestFinancialProfile_UnknownUser(t *testing.T) {
	svc, _ := newProfileSvc(t)
	_, _, err := svc.Save(context.Background(), 999, FinancialProfileInput{Income: ptr(1.0)})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
