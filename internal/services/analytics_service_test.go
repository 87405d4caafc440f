package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finwise/internal/models"
)

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	mem, users := newMem()
	alice := seedUser(t, users, "alice", models.RoleUser)
	bob := seedUser(t, users, "bob", models.RoleAdmin)
	require.NoError(t, users.SetBlocked(ctx, alice.ID, true))

	// Wednesday; the week starts on Monday the 10th.
	clock := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	gate := NewQuestionnaireService(mem.Submissions(), time.UTC)
	gate.SetClock(func() time.Time { return clock })

	submit := func(userID int64, risk int, lifestyle string) {
		in := fullInput()
		in.RiskTolerance = ptr(risk)
		in.Lifestyle = ptr(lifestyle)
		_, err := gate.Submit(ctx, userID, in)
		require.NoError(t, err)
	}
	clock = time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC)
	submit(alice.ID, 3, "frugal")
	clock = time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	submit(alice.ID, 7, "frugal")
	clock = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	submit(alice.ID, 7, "moderate")
	submit(bob.ID, 7, "lavish")

	svc := NewAnalyticsService(mem, time.UTC)
	svc.now = func() time.Time { return clock }

	summary, err := svc.UserSummary(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalQuestionnaires)
	require.Equal(t, []models.Bucket{{Value: "7", Count: 2}, {Value: "3", Count: 1}}, summary.RiskTolerance)

	lifestyle, err := svc.Lifestyle(ctx)
	require.NoError(t, err)
	require.Equal(t, models.Bucket{Value: "frugal", Count: 2}, lifestyle[0])

	risk, err := svc.RiskTolerance(ctx)
	require.NoError(t, err)
	require.Equal(t, models.Bucket{Value: "7", Count: 3}, risk[0])

	o, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, models.Overview{
		TotalUsers:          2,
		Admins:              1,
		BlockedUsers:        1,
		TotalSubmissions:    4,
		SubmissionsToday:    2,
		ActiveUsersThisWeek: 2,
	}, *o)
}
