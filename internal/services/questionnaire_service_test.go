package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"finwise/internal/apperr"
	"finwise/internal/models"
)

func newGate(t *testing.T, loc *time.Location) (*QuestionnaireService, int64, *time.Time) {
	t.Helper()
	mem, users := newMem()
	u := seedUser(t, users, "alice", models.RoleUser)
	clock := time.Date(2025, 3, 14, 23, 59, 58, 0, loc)
	svc := NewQuestionnaireService(mem.Submissions(), loc)
	svc.SetClock(func() time.Time { return clock })
	return svc, u.ID, &clock
}

func TestSubmit_OncePerCalendarDay(t *testing.T) {
	ctx := context.Background()
	svc, userID, clock := newGate(t, time.UTC)

	first, err := svc.Submit(ctx, userID, fullInput())
	require.NoError(t, err)
	require.Equal(t, "2025-03-14", first.Day.Format(time.DateOnly))

	*clock = time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)
	_, err = svc.Submit(ctx, userID, fullInput())
	requireCode(t, err, apperr.ErrConflict, apperr.CodeAlreadySubmittedToday)

	*clock = time.Date(2025, 3, 15, 0, 0, 3, 0, time.UTC)
	second, err := svc.Submit(ctx, userID, fullInput())
	require.NoError(t, err)
	require.Equal(t, "2025-03-15", second.Day.Format(time.DateOnly))
}

func TestSubmit_DayFollowsConfiguredTimezone(t *testing.T) {
	ctx := context.Background()
	tokyo := time.FixedZone("UTC+9", 9*3600)
	svc, userID, clock := newGate(t, tokyo)

	// 14:30 UTC on the 14th is already the 15th in UTC+9.
	*clock = time.Date(2025, 3, 14, 14, 30, 0, 0, time.UTC)
	sub, err := svc.Submit(ctx, userID, fullInput())
	require.NoError(t, err)
	require.Equal(t, "2025-03-15", sub.Day.Format(time.DateOnly))

	*clock = time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)
	_, err = svc.Submit(ctx, userID, fullInput())
	requireCode(t, err, apperr.ErrConflict, apperr.CodeAlreadySubmittedToday)
}

func TestSubmit_AlreadySubmittedWinsOverMissingFields(t *testing.T) {
	ctx := context.Background()
	svc, userID, _ := newGate(t, time.UTC)

	_, err := svc.Submit(ctx, userID, fullInput())
	require.NoError(t, err)

	_, err = svc.Submit(ctx, userID, SubmissionInput{})
	requireCode(t, err, apperr.ErrConflict, apperr.CodeAlreadySubmittedToday)
}

func TestSubmit_MissingFieldsInOrder(t *testing.T) {
	svc, userID, _ := newGate(t, time.UTC)

	in := fullInput()
	in.Salary = nil
	in.Lifestyle = ptr("   ")
	in.RiskTaking = nil

	_, err := svc.Submit(context.Background(), userID, in)
	requireCode(t, err, apperr.ErrValidation, apperr.CodeMissingFields)
	e, _ := apperr.As(err)
	require.Equal(t, []string{"salary", "lifestyle", "riskTaking"}, e.Fields)
	require.Equal(t, "Missing required fields.", e.Message)
}

func TestSubmit_EmptyBodyListsEveryField(t *testing.T) {
	svc, userID, _ := newGate(t, time.UTC)

	_, err := svc.Submit(context.Background(), userID, SubmissionInput{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, RequiredFields, e.Fields)
}

func TestSubmit_ZeroSalaryIsPresent(t *testing.T) {
	svc, userID, _ := newGate(t, time.UTC)

	in := fullInput()
	in.Salary = ptr(0.0)
	sub, err := svc.Submit(context.Background(), userID, in)
	require.NoError(t, err)
	require.Zero(t, sub.Salary)
}

func TestSubmit_OutOfRangeAnswers(t *testing.T) {
	svc, userID, _ := newGate(t, time.UTC)

	in := fullInput()
	in.RiskTolerance = ptr(11)
	in.Age = ptr(0)
	_, err := svc.Submit(context.Background(), userID, in)
	requireCode(t, err, apperr.ErrValidation, apperr.CodeInvalidFields)
	e, _ := apperr.As(err)
	require.ElementsMatch(t, []string{"age", "riskTolerance"}, e.Fields)
}

func TestSubmit_ConcurrentAttemptsYieldOneSuccess(t *testing.T) {
	ctx := context.Background()
	svc, userID, _ := newGate(t, time.UTC)

	var ok, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := svc.Submit(ctx, userID, fullInput())
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.IsCode(err, apperr.CodeAlreadySubmittedToday):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, 15, conflicts.Load())
}

// racingStore hides existing submissions from the pre-check, as if a
// concurrent request inserted between check and insert.
type racingStore struct{ SubmissionStore }

func (racingStore) ExistsForDay(context.Context, int64, time.Time) (bool, error) { return false, nil }

func TestSubmit_InsertConflictMapsToAlreadySubmitted(t *testing.T) {
	ctx := context.Background()
	mem, users := newMem()
	u := seedUser(t, users, "alice", models.RoleUser)
	svc := NewQuestionnaireService(racingStore{mem.Submissions()}, time.UTC)

	_, err := svc.Submit(ctx, u.ID, fullInput())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, u.ID, fullInput())
	requireCode(t, err, apperr.ErrConflict, apperr.CodeAlreadySubmittedToday)
}

func TestLatest_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, userID, clock := newGate(t, time.UTC)

	_, err := svc.Latest(ctx, userID)
	requireCode(t, err, apperr.ErrNotFound, apperr.CodeNoQuestionnaire)

	_, err = svc.Submit(ctx, userID, fullInput())
	require.NoError(t, err)

	*clock = clock.Add(24 * time.Hour)
	in := fullInput()
	in.Lifestyle = ptr("frugal")
	want, err := svc.Submit(ctx, userID, in)
	require.NoError(t, err)

	got, err := svc.Latest(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Answers, got.Answers)

	all, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "frugal", all[0].Lifestyle)
}
