package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/lingobox/lingobox/internal/activity"
	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/lock"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

// ActivityService records engagement events and folds them into daily activity
type ActivityService interface {
	Record(ctx context.Context, userID string, in models.RecordActivityInput) (*models.RecordResult, error)
	// RecordBatch stores every valid item and reports the days needing aggregation.
	RecordBatch(ctx context.Context, userID string, items []models.RecordActivityInput) (*models.BatchRecordResult, error)
	AggregateDay(ctx context.Context, userID, day string) (*models.AggregationResult, error)
	Status(ctx context.Context, userID string) (*models.ActivityStatus, error)
	// PendingDays lists (user, day) pairs with uncounted events created at or after since.
	PendingDays(ctx context.Context, since time.Time) ([]models.UserDay, error)
	Today() string
}

type activityService struct {
	tx     repository.Transactor
	events repository.ActivityEventRepository
	daily  repository.DailyActivityRepository
	locker lock.Locker
	clock  clock.Clock
	loc    *time.Location
}

// NewActivityService creates a new ActivityService. loc defines calendar-day boundaries.
func NewActivityService(
	tx repository.Transactor,
	events repository.ActivityEventRepository,
	daily repository.DailyActivityRepository,
	locker lock.Locker,
	clk clock.Clock,
	loc *time.Location,
) ActivityService {
	if loc == nil {
		loc = time.UTC
	}
	return &activityService{tx: tx, events: events, daily: daily, locker: locker, clock: clk, loc: loc}
}

func (s *activityService) Today() string {
	return activity.DayKey(s.clock.Now(), s.loc)
}

// validate checks one input and builds the event to store.
func (s *activityService) validate(userID string, in models.RecordActivityInput) (models.ActivityEvent, error) {
	kind, err := models.ParseActivityKind(in.ActivityType)
	if err != nil {
		return models.ActivityEvent{}, errors.NewValidationError("activityType", "must be one of video, podcast, words, article, song")
	}
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) || in.Duration <= 0 {
		return models.ActivityEvent{}, errors.NewValidationError("duration", "must be a number greater than 0")
	}

	created := s.clock.Now()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		created = in.Timestamp.UTC()
	}
	return models.ActivityEvent{
		UserID:          userID,
		Kind:            kind,
		DurationSeconds: in.Duration,
		ContentRef:      strings.TrimSpace(in.ContentRef),
		SourcePath:      strings.TrimSpace(in.Pathname),
		CreatedAt:       created,
	}, nil
}

func (s *activityService) Record(ctx context.Context, userID string, in models.RecordActivityInput) (*models.RecordResult, error) {
	log := logger.FromContext(ctx).WithPrefix("activity")

	event, err := s.validate(userID, in)
	if err != nil {
		return nil, err
	}
	log.Debug("recording activity: kind=%s, duration=%.1f", event.Kind, event.DurationSeconds)

	id, err := s.events.Insert(ctx, event)
	if err != nil {
		log.Error("failed to insert activity event: %v", err)
		return nil, errors.NewInternalError(err)
	}
	event.ID = id

	agg, err := s.AggregateDay(ctx, userID, activity.DayKey(event.CreatedAt, s.loc))
	if err != nil {
		return nil, err
	}
	for _, cid := range agg.CountedIDs {
		if cid == id {
			at := agg.DailyActivity.UpdatedAt
			event.Counted, event.CountedAt = true, &at
		}
	}

	return &models.RecordResult{
		Activity:      event,
		DailyActivity: agg.DailyActivity,
		MarkedCount:   agg.MarkedCount,
		Progress:      agg.DailyActivity.Progress,
	}, nil
}

func (s *activityService) RecordBatch(ctx context.Context, userID string, items []models.RecordActivityInput) (*models.BatchRecordResult, error) {
	log := logger.FromContext(ctx).WithPrefix("activity")
	log.Debug("recording activity batch: items=%d", len(items))

	var valid []models.ActivityEvent
	for i, in := range items {
		event, err := s.validate(userID, in)
		if err != nil {
			log.Warn("skipping invalid batch item %d: %v", i, err)
			continue
		}
		valid = append(valid, event)
	}

	res := &models.BatchRecordResult{Activities: []models.ActivityEvent{}}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, e := range valid {
			id, err := s.events.Insert(ctx, e)
			if err != nil {
				return err
			}
			e.ID = id
			res.Activities = append(res.Activities, e)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to insert activity batch: %v", err)
		return nil, errors.NewInternalError(err)
	}

	seen := make(map[string]bool)
	for _, e := range res.Activities {
		day := activity.DayKey(e.CreatedAt, s.loc)
		if !seen[day] {
			seen[day] = true
			res.Days = append(res.Days, models.UserDay{UserID: userID, Day: day})
		}
	}
	res.Processed = len(res.Activities)
	return res, nil
}

func (s *activityService) AggregateDay(ctx context.Context, userID, day string) (*models.AggregationResult, error) {
	log := logger.FromContext(ctx).WithPrefix("aggregate").WithFields(map[string]any{"user_id": userID, "day": day})

	from, to, err := activity.DayBounds(day, s.loc)
	if err != nil {
		return nil, errors.NewValidationError("day", "must be formatted as YYYY-MM-DD")
	}

	unlock, err := s.locker.Lock(ctx, lock.DayKey(userID, day))
	if err != nil {
		log.Error("failed to acquire aggregation lock: %v", err)
		return nil, errors.NewInternalError(err)
	}
	defer unlock()

	var res models.AggregationResult
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		d, err := s.daily.EnsureForUpdate(ctx, userID, day, now)
		if err != nil {
			return err
		}
		events, err := s.events.Uncounted(ctx, userID, from, to)
		if err != nil {
			return err
		}

		out := activity.Apply(d, events, now)
		if out.Changed() {
			d.UpdatedAt = now
			if err := s.daily.Update(ctx, *d); err != nil {
				return err
			}
		}
		marked, err := s.events.MarkCounted(ctx, out.CountedIDs, now)
		if err != nil {
			return err
		}

		res = models.AggregationResult{
			DailyActivity: *d,
			Flipped:       out.Flipped,
			MarkedCount:   marked,
			CountedIDs:    out.CountedIDs,
		}
		return nil
	})
	if err != nil {
		log.Error("aggregation failed: %v", err)
		return nil, errors.NewInternalError(err)
	}

	if len(res.Flipped) > 0 {
		log.Info("aggregated: flipped=%v progress=%d marked=%d", res.Flipped, res.DailyActivity.Progress, res.MarkedCount)
	}
	return &res, nil
}

func (s *activityService) Status(ctx context.Context, userID string) (*models.ActivityStatus, error) {
	log := logger.FromContext(ctx).WithPrefix("activity")
	day := s.Today()

	from, to, err := activity.DayBounds(day, s.loc)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	var d models.DailyActivity
	row, err := s.daily.Get(ctx, userID, day)
	switch {
	case err == nil:
		d = *row
	case !isNotFound(err):
		log.Error("failed to load daily activity: %v", err)
		return nil, errors.NewInternalError(err)
	}

	recorded, err := s.events.KindsRecorded(ctx, userID, from, to)
	if err != nil {
		log.Error("failed to load recorded kinds: %v", err)
		return nil, errors.NewInternalError(err)
	}

	kindStatus := func(k models.ActivityKind) models.KindStatus {
		done := d.Flag(k)
		return models.KindStatus{Processed: done, HasActivities: recorded[k], IsRegistered: done}
	}
	return &models.ActivityStatus{
		Video:   kindStatus(models.KindVideo),
		Podcast: kindStatus(models.KindPodcast),
		Words:   kindStatus(models.KindWords),
		Article: kindStatus(models.KindArticle),
		Overall: models.OverallStatus{Progress: d.Progress, Date: day},
	}, nil
}

func (s *activityService) PendingDays(ctx context.Context, since time.Time) ([]models.UserDay, error) {
	events, err := s.events.PendingSince(ctx, since)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("activity").Error("failed to load pending events: %v", err)
		return nil, errors.NewInternalError(err)
	}

	seen := make(map[models.UserDay]bool)
	var days []models.UserDay
	for _, e := range events {
		ud := models.UserDay{UserID: e.UserID, Day: activity.DayKey(e.CreatedAt, s.loc)}
		if !seen[ud] {
			seen[ud] = true
			days = append(days, ud)
		}
	}
	return days, nil
}
