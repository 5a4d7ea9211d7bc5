package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

type reviewRepository struct {
	db *db.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(d *db.DB) repository.ReviewRepository {
	return &reviewRepository{db: d}
}

func (r *reviewRepository) Insert(ctx context.Context, rv models.Review) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("inserting review: card_id=%d, correct=%t", rv.CardID, rv.IsCorrect)

	id, err := insertReturningID(ctx, r.db, r.db.Builder().
		Insert("reviews").
		Columns("card_id", "user_id", "is_correct", "created_at").
		Values(rv.CardID, rv.UserID, rv.IsCorrect, rv.CreatedAt.UTC()))
	if err != nil {
		log.Error("failed to insert review: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *reviewRepository) CountForCard(ctx context.Context, cardID int64) (int, error) {
	var n int
	err := get(ctx, r.db, &n, r.db.Builder().Select("COUNT(*)").From("reviews").Where(sq.Eq{"card_id": cardID}))
	return n, err
}
