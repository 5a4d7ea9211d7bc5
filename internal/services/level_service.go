package services

import (
	"context"

	"github.com/lingobox/lingobox/internal/activity"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

// LevelService derives the learning level from perfect days
type LevelService interface {
	Level(ctx context.Context, userID string) (*models.UserLevel, error)
}

type levelService struct {
	daily repository.DailyActivityRepository
	days  interface{ Today() string }
}

// NewLevelService creates a new LevelService. today supplies the current day key.
func NewLevelService(daily repository.DailyActivityRepository, today interface{ Today() string }) LevelService {
	return &levelService{daily: daily, days: today}
}

func (s *levelService) Level(ctx context.Context, userID string) (*models.UserLevel, error) {
	log := logger.FromContext(ctx).WithPrefix("level")

	perfect, err := s.daily.CountPerfectDays(ctx, userID)
	if err != nil {
		log.Error("failed to count perfect days: %v", err)
		return nil, errors.NewInternalError(err)
	}

	level := &models.UserLevel{
		CurrentLevel:  perfect + 1,
		PerfectDays:   perfect,
		TasksRequired: len(activity.LevelKinds),
	}

	today, err := s.daily.Get(ctx, userID, s.days.Today())
	switch {
	case err == nil:
		level.TodaysActivity = today
		level.TasksCompleted = activity.CompletedTasks(*today)
		level.TodaysProgress = today.Progress
	case !isNotFound(err):
		log.Error("failed to load today's activity: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return level, nil
}
