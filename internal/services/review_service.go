package services

import (
	"context"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/leitner"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

// ReviewService handles flashcard review scheduling
type ReviewService interface {
	DueCards(ctx context.Context, userID string) ([]models.DueCard, error)
	SubmitReview(ctx context.Context, userID string, cardID int64, correct bool) error
	Progress(ctx context.Context, userID string) (*models.FlashcardProgress, error)
}

type reviewService struct {
	tx      repository.Transactor
	cards   repository.CardRepository
	reviews repository.ReviewRepository
	clock   clock.Clock
}

// NewReviewService creates a new ReviewService
func NewReviewService(tx repository.Transactor, cards repository.CardRepository, reviews repository.ReviewRepository, clk clock.Clock) ReviewService {
	return &reviewService{tx: tx, cards: cards, reviews: reviews, clock: clk}
}

func (s *reviewService) DueCards(ctx context.Context, userID string) ([]models.DueCard, error) {
	log := logger.FromContext(ctx).WithPrefix("review")
	log.Debug("listing due cards: user_id=%s", userID)

	cards, err := s.cards.Due(ctx, userID, s.clock.Now())
	if err != nil {
		log.Error("failed to list due cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *reviewService) SubmitReview(ctx context.Context, userID string, cardID int64, correct bool) error {
	log := logger.FromContext(ctx).WithPrefix("review").WithField("card_id", cardID)
	log.Debug("submitting review: correct=%t", correct)

	if cardID <= 0 {
		return errors.NewValidationError("cardId", "must be a positive integer")
	}

	now := s.clock.Now()
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		card, err := s.cards.GetOwnedForUpdate(ctx, userID, cardID)
		if err != nil {
			return err
		}

		updated := leitner.ApplyReview(*card, correct, now)
		if err := s.cards.UpdateSchedule(ctx, updated); err != nil {
			return err
		}
		_, err = s.reviews.Insert(ctx, models.Review{
			CardID:    card.ID,
			UserID:    userID,
			IsCorrect: correct,
			CreatedAt: now,
		})
		if err == nil {
			log.Debug("card moved to box %d, next review at %s", updated.BoxNumber, updated.NextReviewAt.Format("2006-01-02"))
		}
		return err
	})
	if err != nil {
		return storageError(log, err, "card", cardID, "submit review")
	}
	return nil
}

func (s *reviewService) Progress(ctx context.Context, userID string) (*models.FlashcardProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("review")

	counts, err := s.cards.CountByBox(ctx, userID)
	if err != nil {
		log.Error("failed to count cards by box: %v", err)
		return nil, errors.NewInternalError(err)
	}
	due, err := s.cards.CountDue(ctx, userID, s.clock.Now())
	if err != nil {
		log.Error("failed to count due cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	p := leitner.Progress(counts, due)
	return &p, nil
}
