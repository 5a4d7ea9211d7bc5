package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

type bookRepository struct {
	db *db.DB
}

// NewBookRepository creates a new BookRepository implementation
func NewBookRepository(d *db.DB) repository.BookRepository {
	return &bookRepository{db: d}
}

func (r *bookRepository) Insert(ctx context.Context, b models.Book) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("book_repo")
	log.Debug("inserting book: user_id=%s", b.UserID)

	id, err := insertReturningID(ctx, r.db, r.db.Builder().
		Insert("books").
		Columns("user_id", "title", "description", "created_at").
		Values(b.UserID, b.Title, b.Description, b.CreatedAt.UTC()))
	if err != nil {
		log.Error("failed to insert book: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *bookRepository) Get(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	err := get(ctx, r.db, &b, r.db.Builder().
		Select("id", "user_id", "title", "description", "created_at").
		From("books").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) ListWithCounts(ctx context.Context, userID string) ([]models.BookWithCount, error) {
	books := []models.BookWithCount{}
	err := selectAll(ctx, r.db, &books, r.db.Builder().
		Select("b.id", "b.user_id", "b.title", "b.description", "b.created_at", "COUNT(c.id) AS card_count").
		From("books b").
		LeftJoin("cards c ON c.book_id = b.id").
		Where(sq.Eq{"b.user_id": userID}).
		GroupBy("b.id", "b.user_id", "b.title", "b.description", "b.created_at").
		OrderBy("b.title", "b.id"))
	if err != nil {
		logger.FromContext(ctx).WithPrefix("book_repo").Error("failed to list books: %v", err)
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	n, err := exec(ctx, r.db, r.db.Builder().Delete("books").Where(sq.Eq{"id": id}))
	if err != nil {
		logger.FromContext(ctx).WithPrefix("book_repo").Error("failed to delete book: %v", err)
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
