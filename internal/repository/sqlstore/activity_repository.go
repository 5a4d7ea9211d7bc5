package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

var eventColumns = []string{
	"id", "user_id", "kind", "duration_seconds", "content_ref", "source_path",
	"counted", "counted_at", "created_at",
}

type activityEventRepository struct {
	db *db.DB
}

// NewActivityEventRepository creates a new ActivityEventRepository implementation
func NewActivityEventRepository(d *db.DB) repository.ActivityEventRepository {
	return &activityEventRepository{db: d}
}

func (r *activityEventRepository) Insert(ctx context.Context, e models.ActivityEvent) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("inserting activity event: user_id=%s, kind=%s, duration=%.1f", e.UserID, e.Kind, e.DurationSeconds)

	id, err := insertReturningID(ctx, r.db, r.db.Builder().
		Insert("activity_events").
		Columns("user_id", "kind", "duration_seconds", "content_ref", "source_path", "counted", "created_at").
		Values(e.UserID, string(e.Kind), e.DurationSeconds, e.ContentRef, e.SourcePath, false, e.CreatedAt.UTC()))
	if err != nil {
		log.Error("failed to insert activity event: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *activityEventRepository) Uncounted(ctx context.Context, userID string, from, to time.Time) ([]models.ActivityEvent, error) {
	events := []models.ActivityEvent{}
	err := selectAll(ctx, r.db, &events, r.db.Builder().
		Select(eventColumns...).
		From("activity_events").
		Where(sq.Eq{"user_id": userID, "counted": false}).
		Where(sq.GtOrEq{"created_at": from.UTC()}).
		Where(sq.Lt{"created_at": to.UTC()}).
		OrderBy("created_at", "id"))
	if err != nil {
		logger.FromContext(ctx).WithPrefix("activity_repo").Error("failed to load uncounted events: %v", err)
		return nil, err
	}
	return events, nil
}

func (r *activityEventRepository) KindsRecorded(ctx context.Context, userID string, from, to time.Time) (map[models.ActivityKind]bool, error) {
	var kinds []string
	err := selectAll(ctx, r.db, &kinds, r.db.Builder().
		Select("kind").
		Distinct().
		From("activity_events").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": from.UTC()}).
		Where(sq.Lt{"created_at": to.UTC()}))
	if err != nil {
		return nil, err
	}
	out := make(map[models.ActivityKind]bool, len(kinds))
	for _, k := range kinds {
		out[models.ActivityKind(k)] = true
	}
	return out, nil
}

func (r *activityEventRepository) MarkCounted(ctx context.Context, ids []int64, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("marking events counted: count=%d", len(ids))

	n, err := exec(ctx, r.db, r.db.Builder().
		Update("activity_events").
		Set("counted", true).
		Set("counted_at", at.UTC()).
		Where(sq.Eq{"id": ids, "counted": false}))
	if err != nil {
		log.Error("failed to mark events counted: %v", err)
		return 0, err
	}
	return int(n), nil
}

func (r *activityEventRepository) PendingSince(ctx context.Context, since time.Time) ([]models.ActivityEvent, error) {
	events := []models.ActivityEvent{}
	err := selectAll(ctx, r.db, &events, r.db.Builder().
		Select(eventColumns...).
		From("activity_events").
		Where(sq.Eq{"counted": false}).
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		OrderBy("created_at", "id"))
	if err != nil {
		logger.FromContext(ctx).WithPrefix("activity_repo").Error("failed to load pending events: %v", err)
		return nil, err
	}
	return events, nil
}
