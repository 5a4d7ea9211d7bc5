package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/leitner"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

const (
	maxCardText    = 500
	maxHintText    = 1000
	defaultListLen = 50
	maxListLen     = 200
)

// CardService handles card creation, capture, listing and deletion
type CardService interface {
	Create(ctx context.Context, userID string, in models.CreateCardInput) (*models.Card, error)
	Capture(ctx context.Context, userID, word, translation, sentence string) (*models.CaptureResult, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Delete(ctx context.Context, user models.User, id int64) error
}

type cardService struct {
	cards repository.CardRepository
	books repository.BookRepository
	clock clock.Clock
}

// NewCardService creates a new CardService
func NewCardService(cards repository.CardRepository, books repository.BookRepository, clk clock.Clock) CardService {
	return &cardService{cards: cards, books: books, clock: clk}
}

// newCard validates in and returns a card that is due immediately.
func newCard(userID string, in models.CreateCardInput, now time.Time) (models.Card, error) {
	front, err := requiredText("front", in.Front, maxCardText)
	if err != nil {
		return models.Card{}, err
	}
	back, err := requiredText("back", in.Back, maxCardText)
	if err != nil {
		return models.Card{}, err
	}
	hint := in.Hint
	if len([]rune(hint)) > maxHintText {
		return models.Card{}, errors.NewValidationError("hint", "is too long")
	}
	source := in.Source
	if source == "" {
		source = models.CardSourceManual
	}
	if !source.Valid() {
		return models.Card{}, errors.NewValidationError("source", "is not a known card source")
	}
	return models.Card{
		UserID:         userID,
		BookID:         in.BookID,
		Front:          front,
		Back:           back,
		Hint:           hint,
		Source:         source,
		BoxNumber:      leitner.FirstBox,
		LastReviewedAt: now,
		NextReviewAt:   now,
		CreatedAt:      now,
	}, nil
}

func (s *cardService) checkBook(ctx context.Context, log *logger.Logger, userID string, bookID *int64) error {
	if bookID == nil {
		return nil
	}
	book, err := s.books.Get(ctx, *bookID)
	if err != nil {
		return storageError(log, err, "book", *bookID, "load book")
	}
	if book.UserID != userID {
		return errors.NewNotFoundError("book", *bookID)
	}
	return nil
}

func (s *cardService) Create(ctx context.Context, userID string, in models.CreateCardInput) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("cards")
	log.Debug("creating card: source=%s", in.Source)

	card, err := newCard(userID, in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.checkBook(ctx, log, userID, card.BookID); err != nil {
		return nil, err
	}

	id, err := s.cards.Insert(ctx, card)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	card.ID = id
	return &card, nil
}

func (s *cardService) Capture(ctx context.Context, userID, word, translation, sentence string) (*models.CaptureResult, error) {
	log := logger.FromContext(ctx).WithPrefix("cards")

	front, err := requiredText("word", word, maxCardText)
	if err != nil {
		return nil, err
	}
	existing, err := s.cards.FindByFront(ctx, userID, front)
	switch {
	case err == nil:
		log.Debug("word already captured: card_id=%d", existing.ID)
		return &models.CaptureResult{Card: *existing, Created: false}, nil
	case !stderrors.Is(err, repository.ErrNotFound):
		log.Error("failed to look up captured word: %v", err)
		return nil, errors.NewInternalError(err)
	}

	if _, err := requiredText("translation", translation, maxCardText); err != nil {
		return nil, err
	}
	card, err := s.Create(ctx, userID, models.CreateCardInput{
		Front:  front,
		Back:   translation,
		Hint:   sentence,
		Source: models.CardSourceVocabulary,
	})
	if stderrors.Is(err, repository.ErrDuplicate) {
		// a concurrent capture of the same word won the insert
		existing, err := s.cards.FindByFront(ctx, userID, front)
		if err != nil {
			return nil, storageError(log, err, "card", front, "reload captured word")
		}
		return &models.CaptureResult{Card: *existing, Created: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.CaptureResult{Card: *card, Created: true}, nil
}

func (s *cardService) List(ctx context.Context, f models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("cards")

	switch {
	case f.Limit <= 0:
		f.Limit = defaultListLen
	case f.Limit > maxListLen:
		f.Limit = maxListLen
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	cards, err := s.cards.List(ctx, f)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *cardService) Delete(ctx context.Context, user models.User, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("cards").WithField("card_id", id)

	card, err := s.cards.Get(ctx, id)
	if err != nil {
		return storageError(log, err, "card", id, "load card")
	}
	if card.UserID != user.ID && !user.IsAdmin() {
		return errors.NewNotFoundError("card", id)
	}
	if err := s.cards.Delete(ctx, id); err != nil {
		return storageError(log, err, "card", id, "delete card")
	}
	log.Info("card deleted")
	return nil
}
