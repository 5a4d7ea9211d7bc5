package services

import (
	"context"
	"fmt"
	"io"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/importer"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

// ImportService creates cards from spreadsheet templates
type ImportService interface {
	ImportCards(ctx context.Context, userID string, bookID *int64, filename string, r io.Reader) (*models.ImportResult, error)
}

type importService struct {
	tx    repository.Transactor
	cards repository.CardRepository
	books repository.BookRepository
	clock clock.Clock
}

// NewImportService creates a new ImportService
func NewImportService(tx repository.Transactor, cards repository.CardRepository, books repository.BookRepository, clk clock.Clock) ImportService {
	return &importService{tx: tx, cards: cards, books: books, clock: clk}
}

func (s *importService) ImportCards(ctx context.Context, userID string, bookID *int64, filename string, r io.Reader) (*models.ImportResult, error) {
	log := logger.FromContext(ctx).WithPrefix("import").WithField("file", filename)
	log.Info("importing cards")

	rows, err := importer.Parse(filename, r)
	if err != nil {
		log.Warn("failed to parse template: %v", err)
		return nil, errors.NewBadRequestError(err.Error())
	}

	if bookID != nil {
		book, err := s.books.Get(ctx, *bookID)
		if err != nil {
			return nil, storageError(log, err, "book", *bookID, "load book")
		}
		if book.UserID != userID {
			return nil, errors.NewNotFoundError("book", *bookID)
		}
	}

	now := s.clock.Now()
	result := &models.ImportResult{TotalRows: len(rows), Errors: []string{}}
	cards := make([]models.Card, 0, len(rows))
	for _, row := range rows {
		card, err := newCard(userID, models.CreateCardInput{
			Front:  row.Front,
			Back:   row.Back,
			Hint:   row.Hint,
			BookID: bookID,
			Source: models.CardSourceTemplate,
		}, now)
		if err != nil {
			result.Skipped++
			msg := err.Error()
			if appErr, ok := errors.As(err); ok {
				msg = appErr.Message
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row.Line, msg))
			continue
		}
		cards = append(cards, card)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		ids, err := s.cards.InsertBatch(ctx, cards)
		result.Created = len(ids)
		return err
	})
	if err != nil {
		log.Error("failed to insert imported cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("import finished: total=%d created=%d skipped=%d", result.TotalRows, result.Created, result.Skipped)
	return result, nil
}
