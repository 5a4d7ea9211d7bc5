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

var dailyColumns = []string{
	"id", "user_id", "day", "video_watched", "podcast_listened", "words_learned",
	"article_read", "song_listened", "progress", "completed_at", "created_at", "updated_at",
}

type dailyActivityRepository struct {
	db *db.DB
}

// NewDailyActivityRepository creates a new DailyActivityRepository implementation
func NewDailyActivityRepository(d *db.DB) repository.DailyActivityRepository {
	return &dailyActivityRepository{db: d}
}

func (r *dailyActivityRepository) EnsureForUpdate(ctx context.Context, userID, day string, now time.Time) (*models.DailyActivity, error) {
	log := logger.FromContext(ctx).WithPrefix("daily_repo")
	log.Debug("ensuring daily activity: user_id=%s, day=%s", userID, day)

	now = now.UTC()
	_, err := exec(ctx, r.db, r.db.Builder().
		Insert("daily_activities").
		Columns("user_id", "day", "progress", "created_at", "updated_at").
		Values(userID, day, 0, now, now).
		Suffix("ON CONFLICT (user_id, day) DO NOTHING"))
	if err != nil {
		log.Error("failed to create daily activity: %v", err)
		return nil, err
	}

	var d models.DailyActivity
	q := r.db.ForUpdate(r.db.Builder().
		Select(dailyColumns...).
		From("daily_activities").
		Where(sq.Eq{"user_id": userID, "day": day}))
	if err := get(ctx, r.db, &d, q); err != nil {
		log.Error("failed to load daily activity: %v", err)
		return nil, err
	}
	return &d, nil
}

func (r *dailyActivityRepository) Get(ctx context.Context, userID, day string) (*models.DailyActivity, error) {
	var d models.DailyActivity
	err := get(ctx, r.db, &d, r.db.Builder().
		Select(dailyColumns...).
		From("daily_activities").
		Where(sq.Eq{"user_id": userID, "day": day}))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dailyActivityRepository) Update(ctx context.Context, d models.DailyActivity) error {
	log := logger.FromContext(ctx).WithPrefix("daily_repo")
	log.Debug("updating daily activity: id=%d, progress=%d", d.ID, d.Progress)

	var completedAt any
	if d.CompletedAt != nil {
		completedAt = d.CompletedAt.UTC()
	}
	n, err := exec(ctx, r.db, r.db.Builder().
		Update("daily_activities").
		Set("video_watched", d.VideoWatched).
		Set("podcast_listened", d.PodcastListened).
		Set("words_learned", d.WordsLearned).
		Set("article_read", d.ArticleRead).
		Set("song_listened", d.SongListened).
		Set("progress", d.Progress).
		Set("completed_at", completedAt).
		Set("updated_at", d.UpdatedAt.UTC()).
		Where(sq.Eq{"id": d.ID}))
	if err != nil {
		log.Error("failed to update daily activity: %v", err)
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *dailyActivityRepository) CountPerfectDays(ctx context.Context, userID string) (int, error) {
	var n int
	err := get(ctx, r.db, &n, r.db.Builder().
		Select("COUNT(*)").
		From("daily_activities").
		Where(sq.Eq{"user_id": userID, "progress": 100}))
	return n, err
}
