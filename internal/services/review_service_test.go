package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
	"github.com/lingobox/lingobox/internal/services"
	"github.com/lingobox/lingobox/internal/testutil"
	"github.com/lingobox/lingobox/internal/testutil/mocks"
)

func newReviewService(t *testing.T) (services.ReviewService, *mocks.MockCardRepository, *mocks.MockReviewRepository, *mocks.Transactor) {
	t.Helper()
	cards := new(mocks.MockCardRepository)
	reviews := new(mocks.MockReviewRepository)
	tx := &mocks.Transactor{}
	t.Cleanup(func() {
		cards.AssertExpectations(t)
		reviews.AssertExpectations(t)
	})
	return services.NewReviewService(tx, cards, reviews, clock.NewFixed(testutil.Epoch)), cards, reviews, tx
}

func TestSubmitReview_CorrectAdvancesBox(t *testing.T) {
	svc, cards, reviews, tx := newReviewService(t)
	ctx := context.Background()
	now := testutil.Epoch

	card := &models.Card{ID: 7, UserID: "alice", BoxNumber: 1, NextReviewAt: now, LastReviewedAt: now}
	cards.On("GetOwnedForUpdate", mock.Anything, "alice", int64(7)).Return(card, nil)
	cards.On("UpdateSchedule", mock.Anything, mock.MatchedBy(func(c models.Card) bool {
		return c.BoxNumber == 2 && c.NextReviewAt.Equal(now.AddDate(0, 0, 4)) && c.LastReviewedAt.Equal(now)
	})).Return(nil)
	reviews.On("Insert", mock.Anything, mock.MatchedBy(func(r models.Review) bool {
		return r.CardID == 7 && r.UserID == "alice" && r.IsCorrect
	})).Return(int64(1), nil)

	require.NoError(t, svc.SubmitReview(ctx, "alice", 7, true))
	assert.Equal(t, 1, tx.Calls)
}

func TestSubmitReview_IncorrectResetsToFirstBox(t *testing.T) {
	svc, cards, reviews, _ := newReviewService(t)
	now := testutil.Epoch

	cards.On("GetOwnedForUpdate", mock.Anything, "alice", int64(3)).
		Return(&models.Card{ID: 3, UserID: "alice", BoxNumber: 3}, nil)
	cards.On("UpdateSchedule", mock.Anything, mock.MatchedBy(func(c models.Card) bool {
		return c.BoxNumber == 1 && c.NextReviewAt.Equal(now.Add(24*time.Hour))
	})).Return(nil)
	reviews.On("Insert", mock.Anything, mock.Anything).Return(int64(1), nil)

	require.NoError(t, svc.SubmitReview(context.Background(), "alice", 3, false))
}

func TestSubmitReview_UnknownCardIsNotFound(t *testing.T) {
	svc, cards, _, _ := newReviewService(t)

	cards.On("GetOwnedForUpdate", mock.Anything, "alice", int64(99)).Return(nil, repository.ErrNotFound)

	err := svc.SubmitReview(context.Background(), "alice", 99, true)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSubmitReview_RejectsNonPositiveID(t *testing.T) {
	svc, _, _, tx := newReviewService(t)

	err := svc.SubmitReview(context.Background(), "alice", 0, true)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, tx.Calls)
}

func TestSubmitReview_StorageFailureIsInternal(t *testing.T) {
	svc, cards, _, _ := newReviewService(t)

	cards.On("GetOwnedForUpdate", mock.Anything, "alice", int64(1)).
		Return(&models.Card{ID: 1, UserID: "alice", BoxNumber: 2}, nil)
	cards.On("UpdateSchedule", mock.Anything, mock.Anything).Return(assert.AnError)

	err := svc.SubmitReview(context.Background(), "alice", 1, true)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}

func TestProgress(t *testing.T) {
	svc, cards, _, _ := newReviewService(t)

	cards.On("CountByBox", mock.Anything, "alice").Return([]models.BoxCount{
		{BoxNumber: 1, Count: 2},
		{BoxNumber: 6, Count: 2},
	}, nil)
	cards.On("CountDue", mock.Anything, "alice", testutil.Epoch).Return(1, nil)

	p, err := svc.Progress(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalCards)
	assert.Equal(t, 1, p.DueCards)
	assert.Equal(t, 50, p.OverallProgress)
	require.Len(t, p.Data, 2)
	assert.Equal(t, "Box 1", p.Data[0].Box)
	assert.Equal(t, 50, p.Data[0].Progress)
}
