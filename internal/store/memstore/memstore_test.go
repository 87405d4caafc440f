package memstore

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

func TestUsers_UniqueUsernameAndEmail(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	require.NoError(t, users.Create(ctx, &models.User{Username: "alice", Email: "Alice@Example.com"}))

	err := users.Create(ctx, &models.User{Username: "alice", Email: "x@example.com"})
	require.True(t, apperr.IsCode(err, apperr.CodeDuplicateUsername), "got %v", err)

	err = users.Create(ctx, &models.User{Username: "alice2", Email: "alice@example.com"})
	require.True(t, apperr.IsCode(err, apperr.CodeDuplicateEmail), "got %v", err)
}

func TestUsers_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	users := New().Users()
	u := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Role = models.RoleAdmin

	again, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, again.Role)
}

func TestSubmissions_OnePerUserDay(t *testing.T) {
	ctx := context.Background()
	s := New()
	users, subs := s.Users(), s.Submissions()
	u := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, u))

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, subs.Create(ctx, &models.Submission{UserID: u.ID, Day: day, CreatedAt: day}))

	err := subs.Create(ctx, &models.Submission{UserID: u.ID, Day: day, CreatedAt: day.Add(time.Hour)})
	require.True(t, errors.Is(err, apperr.ErrConflict))

	require.NoError(t, subs.Create(ctx, &models.Submission{UserID: u.ID, Day: day.AddDate(0, 0, 1), CreatedAt: day.AddDate(0, 0, 1)}))

	// Deleting the user cascades to submissions and frees the day.
	require.NoError(t, users.Delete(ctx, u.ID))
	n, err := s.CountByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)
	exists, err := subs.ExistsForDay(ctx, u.ID, day)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSubmissions_UnknownUser(t *testing.T) {
	err := New().Submissions().Create(context.Background(), &models.Submission{UserID: 9, Day: time.Now()})
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRiskTolerance_TiesOrderNumerically(t *testing.T) {
	ctx := context.Background()
	s := New()
	users, subs := s.Users(), s.Submissions()

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, risk := range []int{10, 2, 9, 2} {
		u := &models.User{Username: "u" + strconv.Itoa(i), Email: "u" + strconv.Itoa(i) + "@example.com"}
		require.NoError(t, users.Create(ctx, u))
		sub := &models.Submission{UserID: u.ID, Day: day, CreatedAt: day}
		sub.RiskTolerance = risk
		require.NoError(t, subs.Create(ctx, sub))
	}

	got, err := s.RiskTolerance(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []models.Bucket{
		{Value: "2", Count: 2},
		{Value: "9", Count: 1},
		{Value: "10", Count: 1},
	}, got)
}

func TestProfiles_UpsertAndCascade(t *testing.T) {
	ctx := context.Background()
	s := New()
	users, profiles := s.Users(), s.Profiles()
	u := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, users.Create(ctx, u))

	created, err := profiles.Upsert(ctx, &models.FinancialProfile{UserID: u.ID, Income: 100,
		CustomExpenses: []models.CustomExpense{{Name: "gym", Amount: 30}}})
	require.NoError(t, err)
	require.True(t, created)

	got, err := profiles.Get(ctx, u.ID)
	require.NoError(t, err)
	got.CustomExpenses[0].Amount = 999
	again, err := profiles.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 30.0, again.CustomExpenses[0].Amount)

	created, err = profiles.Upsert(ctx, &models.FinancialProfile{UserID: u.ID, Income: 200})
	require.NoError(t, err)
	require.False(t, created)

	require.NoError(t, users.Delete(ctx, u.ID))
	_, err = profiles.Get(ctx, u.ID)
	require.True(t, apperr.IsCode(err, apperr.CodeNoFinancialProfile))
}
