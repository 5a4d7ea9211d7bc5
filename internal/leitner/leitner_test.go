package leitner_test

import (
	"testing"
	"time"

	"github.com/lingobox/lingobox/internal/leitner"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestApplyReview_CorrectFromFreshCard(t *testing.T) {
	card := models.Card{BoxNumber: 1, NextReviewAt: t0, LastReviewedAt: t0}

	updated := leitner.ApplyReview(card, true, t0)

	assert.Equal(t, 2, updated.BoxNumber)
	assert.Equal(t, t0.AddDate(0, 0, 4), updated.NextReviewAt)
	assert.Equal(t, t0, updated.LastReviewedAt)
}

func TestApplyReview_IncorrectResetsToFirstBox(t *testing.T) {
	for _, box := range []int{2, 3, 7, 20} {
		card := models.Card{BoxNumber: box}

		updated := leitner.ApplyReview(card, false, t0)

		assert.Equal(t, leitner.FirstBox, updated.BoxNumber, "box %d", box)
		assert.Equal(t, t0.AddDate(0, 0, 1), updated.NextReviewAt, "box %d", box)
	}
}

func TestApplyReview_CorrectStreakIsMonotonic(t *testing.T) {
	card := models.Card{BoxNumber: 1, NextReviewAt: t0}
	now := t0

	for i := 0; i < 25; i++ {
		prev := card
		card = leitner.ApplyReview(card, true, now)
		require.Equal(t, prev.BoxNumber+1, card.BoxNumber)
		require.True(t, card.NextReviewAt.After(prev.NextReviewAt), "review %d", i)
		require.False(t, card.NextReviewAt.Before(card.LastReviewedAt))
		now = card.NextReviewAt
	}
}

func TestApplyReview_DoesNotMutateInput(t *testing.T) {
	card := models.Card{BoxNumber: 3}
	_ = leitner.ApplyReview(card, true, t0)
	assert.Equal(t, 3, card.BoxNumber)
}

func TestIntervalDays(t *testing.T) {
	assert.Equal(t, 4, leitner.IntervalDays(2))
	assert.Equal(t, 8, leitner.IntervalDays(3))
	assert.Equal(t, 16, leitner.IntervalDays(4))
	assert.Equal(t, 1024, leitner.IntervalDays(10))
	assert.Equal(t, leitner.IntervalDays(16), leitner.IntervalDays(40))
}

func TestProgress(t *testing.T) {
	t.Run("empty deck", func(t *testing.T) {
		p := leitner.Progress(nil, 0)
		assert.Equal(t, 0, p.TotalCards)
		assert.Equal(t, 0, p.OverallProgress)
		assert.Empty(t, p.Data)
	})

	t.Run("mixed boxes", func(t *testing.T) {
		p := leitner.Progress([]models.BoxCount{
			{BoxNumber: 3, Count: 1},
			{BoxNumber: 1, Count: 2},
			{BoxNumber: 8, Count: 1},
		}, 2)

		require.Len(t, p.Data, 3)
		assert.Equal(t, models.BoxProgress{Box: "Box 1", BoxNumber: 1, Count: 2, Progress: 50}, p.Data[0])
		assert.Equal(t, "Box 8", p.Data[2].Box)
		assert.Equal(t, 4, p.TotalCards)
		assert.Equal(t, 2, p.DueCards)
		// (0*2 + 40*1 + 100*1) / 4 = 35
		assert.Equal(t, 35, p.OverallProgress)
	})

	t.Run("all learned caps at 100", func(t *testing.T) {
		p := leitner.Progress([]models.BoxCount{{BoxNumber: 12, Count: 5}}, 0)
		assert.Equal(t, 100, p.OverallProgress)
	})
}
