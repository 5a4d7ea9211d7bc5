package sqlstore

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

var cardColumns = []string{
	"id", "user_id", "book_id", "front", "back", "hint", "source",
	"box_number", "last_reviewed_at", "next_review_at", "created_at",
}

type cardRepository struct {
	db *db.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(d *db.DB) repository.CardRepository {
	return &cardRepository{db: d}
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: user_id=%s, source=%s", c.UserID, c.Source)

	id, err := insertReturningID(ctx, r.db, r.db.Builder().
		Insert("cards").
		Columns("user_id", "book_id", "front", "front_key", "back", "hint", "source",
			"box_number", "last_reviewed_at", "next_review_at", "created_at").
		Values(c.UserID, c.BookID, c.Front, models.FrontKey(c.Front), c.Back, c.Hint, string(c.Source),
			c.BoxNumber, c.LastReviewedAt.UTC(), c.NextReviewAt.UTC(), c.CreatedAt.UTC()))
	if errors.Is(err, repository.ErrDuplicate) {
		log.Debug("card front already captured: %s", c.Front)
		return 0, err
	}
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

func (r *cardRepository) InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	if len(cards) == 0 {
		return nil, nil
	}
	log.Debug("inserting card batch: count=%d", len(cards))

	ids := make([]int64, 0, len(cards))
	err := r.db.InTx(ctx, func(ctx context.Context) error {
		for _, c := range cards {
			id, err := r.Insert(ctx, c)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to insert card batch: %v", err)
		return nil, err
	}
	return ids, nil
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	var c models.Card
	err := get(ctx, r.db, &c, r.db.Builder().Select(cardColumns...).From("cards").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) GetOwnedForUpdate(ctx context.Context, userID string, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("loading card for update: id=%d, user_id=%s", id, userID)

	var c models.Card
	q := r.db.ForUpdate(r.db.Builder().
		Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err := get(ctx, r.db, &c, q); err != nil {
		if err != repository.ErrNotFound {
			log.Error("failed to load card: %v", err)
		}
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) FindByFront(ctx context.Context, userID, front string) (*models.Card, error) {
	var c models.Card
	err := get(ctx, r.db, &c, r.db.Builder().
		Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"user_id": userID, "front_key": models.FrontKey(front)}).
		OrderBy("id").
		Limit(1))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) List(ctx context.Context, f models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: user_id=%s, limit=%d, offset=%d", f.UserID, f.Limit, f.Offset)

	q := r.db.Builder().
		Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"user_id": f.UserID}).
		OrderBy("created_at DESC", "id DESC")
	if f.BookID != nil {
		q = q.Where(sq.Eq{"book_id": *f.BookID})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	cards := []models.Card{}
	if err := selectAll(ctx, r.db, &cards, q); err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) Due(ctx context.Context, userID string, now time.Time) ([]models.DueCard, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("fetching due cards: user_id=%s", userID)

	cards := []models.DueCard{}
	err := selectAll(ctx, r.db, &cards, r.db.Builder().
		Select("id", "front", "back", "box_number", "next_review_at").
		From("cards").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"next_review_at": now.UTC()}).
		OrderBy("next_review_at ASC", "id ASC"))
	if err != nil {
		log.Error("failed to query due cards: %v", err)
		return nil, err
	}
	log.Debug("found %d due cards", len(cards))
	return cards, nil
}

func (r *cardRepository) UpdateSchedule(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card schedule: id=%d, box=%d", c.ID, c.BoxNumber)

	n, err := exec(ctx, r.db, r.db.Builder().
		Update("cards").
		Set("box_number", c.BoxNumber).
		Set("last_reviewed_at", c.LastReviewedAt.UTC()).
		Set("next_review_at", c.NextReviewAt.UTC()).
		Where(sq.Eq{"id": c.ID}))
	if err != nil {
		log.Error("failed to update card: %v", err)
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%d", id)

	n, err := exec(ctx, r.db, r.db.Builder().Delete("cards").Where(sq.Eq{"id": id}))
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *cardRepository) CountByBox(ctx context.Context, userID string) ([]models.BoxCount, error) {
	counts := []models.BoxCount{}
	err := selectAll(ctx, r.db, &counts, r.db.Builder().
		Select("box_number", "COUNT(*) AS count").
		From("cards").
		Where(sq.Eq{"user_id": userID}).
		GroupBy("box_number").
		OrderBy("box_number"))
	if err != nil {
		logger.FromContext(ctx).WithPrefix("card_repo").Error("failed to count cards by box: %v", err)
		return nil, err
	}
	return counts, nil
}

func (r *cardRepository) CountDue(ctx context.Context, userID string, now time.Time) (int, error) {
	var n int
	err := get(ctx, r.db, &n, r.db.Builder().
		Select("COUNT(*)").
		From("cards").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"next_review_at": now.UTC()}))
	return n, err
}
