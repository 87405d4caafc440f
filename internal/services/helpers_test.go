package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finwise/internal/apperr"
	"finwise/internal/models"
	"finwise/internal/store/memstore"
)

func ptr[T any](v T) *T { return &v }

// fullInput returns a questionnaire with every answer present and in range.
func fullInput() SubmissionInput {
	return SubmissionInput{
		Age:                   ptr(34),
		EmploymentStatus:      ptr("employed"),
		Salary:                ptr(52000.0),
		HomeOwnership:         ptr("rent"),
		HasDebt:               ptr("yes"),
		Lifestyle:             ptr("moderate"),
		Dependents:            ptr("2"),
		FinancialGoals:        ptr("buy a house"),
		RiskTolerance:         ptr(7),
		InvestmentApproach:    ptr(5),
		EmergencyPreparedness: ptr(6),
		FinancialTracking:     ptr(8),
		FutureSecurity:        ptr(4),
		SpendingDiscipline:    ptr(6),
		AssetAllocation:       ptr(5),
		RiskTaking:            ptr(3),
	}
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	require.Equal(t, code, e.Code)
}

// seedUser creates a user directly in the store with a known password.
func seedUser(t *testing.T, users UserStore, username, role string) *models.User {
	t.Helper()
	hash, err := HashPassword("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		FirstName:    "Test",
		LastName:     "User",
		Gender:       "other",
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func newMem() (*memstore.Store, *memstore.Users) {
	mem := memstore.New()
	return mem, mem.Users()
}
