package services

import (
	"context"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

// BookService manages the books cards are filed under
type BookService interface {
	Create(ctx context.Context, userID, title, description string) (*models.Book, error)
	List(ctx context.Context, userID string) ([]models.BookWithCount, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type bookService struct {
	books repository.BookRepository
	clock clock.Clock
}

// NewBookService creates a new BookService
func NewBookService(books repository.BookRepository, clk clock.Clock) BookService {
	return &bookService{books: books, clock: clk}
}

func (s *bookService) Create(ctx context.Context, userID, title, description string) (*models.Book, error) {
	log := logger.FromContext(ctx).WithPrefix("books")

	title, err := requiredText("title", title, 200)
	if err != nil {
		return nil, err
	}
	book := models.Book{UserID: userID, Title: title, Description: description, CreatedAt: s.clock.Now()}
	id, err := s.books.Insert(ctx, book)
	if err != nil {
		log.Error("failed to insert book: %v", err)
		return nil, errors.NewInternalError(err)
	}
	book.ID = id
	return &book, nil
}

func (s *bookService) List(ctx context.Context, userID string) ([]models.BookWithCount, error) {
	books, err := s.books.ListWithCounts(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("books").Error("failed to list books: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return books, nil
}

func (s *bookService) Delete(ctx context.Context, userID string, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("books").WithField("book_id", id)

	book, err := s.books.Get(ctx, id)
	if err != nil {
		return storageError(log, err, "book", id, "load book")
	}
	if book.UserID != userID {
		return errors.NewNotFoundError("book", id)
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return storageError(log, err, "book", id, "delete book")
	}
	return nil
}
