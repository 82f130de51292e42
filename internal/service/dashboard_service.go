package service

import (
	"context"
	"errors"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
)

type DashboardService struct {
	activity ActivityRepository
	stats    StatsRepository
}

func NewDashboardService(activity ActivityRepository, stats StatsRepository) *DashboardService {
	return &DashboardService{activity: activity, stats: stats}
}

// Stats returns the current snapshot. When the store has none yet, an empty
// delta is applied so the zero snapshot is created under the store's stats
// lock and cannot overwrite a concurrent completion.
func (s *DashboardService) Stats(ctx context.Context) (*entity.SystemStats, error) {
	cur, err := s.stats.CurrentStats(ctx)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.stats.ApplyStats(ctx, entity.StatsDelta{})
}

func (s *DashboardService) RecentActivity(ctx context.Context, limit int) ([]entity.ActivityLog, error) {
	return s.activity.RecentActivity(ctx, ClampLimit(limit))
}
