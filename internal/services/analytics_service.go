package services

import (
	"context"
	"time"

	"finwise/internal/models"
)

type AnalyticsService struct {
	store AnalyticsStore
	loc   *time.Location
	now   func() time.Time
}

func NewAnalyticsService(store AnalyticsStore, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{store: store, loc: loc, now: time.Now}
}

// UserSummary is the per-user questionnaire breakdown.
type UserSummary struct {
	TotalQuestionnaires int             `json:"totalQuestionnaires"`
	RiskTolerance       []models.Bucket `json:"riskTolerance"`
}

func (s *AnalyticsService) UserSummary(ctx context.Context, userID int64) (*UserSummary, error) {
	total, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	buckets, err := s.store.RiskTolerance(ctx, &userID)
	if err != nil {
		return nil, err
	}
	return &UserSummary{TotalQuestionnaires: total, RiskTolerance: buckets}, nil
}

func (s *AnalyticsService) Lifestyle(ctx context.Context) ([]models.Bucket, error) {
	return s.store.Lifestyle(ctx)
}

func (s *AnalyticsService) RiskTolerance(ctx context.Context) ([]models.Bucket, error) {
	return s.store.RiskTolerance(ctx, nil)
}

// Overview counts activity for today and for the week starting on Monday,
// both in the gate timezone.
func (s *AnalyticsService) Overview(ctx context.Context) (*models.Overview, error) {
	today := StartOfDay(s.now(), s.loc)
	offset := (int(today.Weekday()) + 6) % 7
	return s.store.Overview(ctx, today, today.AddDate(0, 0, -offset))
}
