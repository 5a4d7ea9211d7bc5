// Package leitner implements the binary Leitner box schedule: a correct answer
// promotes a card one box and doubles its interval, a wrong answer sends it back
// to box 1.
package leitner

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/lingobox/lingobox/internal/models"
)

const (
	// FirstBox is where new and failed cards live.
	FirstBox = 1

	// maxIntervalExponent keeps 2^box days inside time.Time's range.
	maxIntervalExponent = 16

	// learnedBox is the box at which a card counts as fully learned in the
	// overall progress figure.
	learnedBox = 6
)

// IntervalDays returns the review interval for a card that has just moved into box.
func IntervalDays(box int) int {
	if box < FirstBox {
		box = FirstBox
	}
	if box > maxIntervalExponent {
		box = maxIntervalExponent
	}
	return 1 << box
}

// ApplyReview returns card with its scheduling updated for a review at now.
func ApplyReview(card models.Card, correct bool, now time.Time) models.Card {
	if card.BoxNumber < FirstBox {
		card.BoxNumber = FirstBox
	}

	if correct {
		card.BoxNumber++
		card.NextReviewAt = now.AddDate(0, 0, IntervalDays(card.BoxNumber))
	} else {
		card.BoxNumber = FirstBox
		card.NextReviewAt = now.AddDate(0, 0, 1)
	}
	card.LastReviewedAt = now
	return card
}

// Progress builds the chart data for a deck from its per-box distribution.
func Progress(counts []models.BoxCount, due int) models.FlashcardProgress {
	sorted := append([]models.BoxCount(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BoxNumber < sorted[j].BoxNumber })

	total := 0
	for _, c := range sorted {
		total += c.Count
	}

	out := models.FlashcardProgress{
		Data:       make([]models.BoxProgress, 0, len(sorted)),
		TotalCards: total,
		DueCards:   due,
	}
	if total == 0 {
		return out
	}

	weighted := 0
	for _, c := range sorted {
		out.Data = append(out.Data, models.BoxProgress{
			Box:       boxLabel(c.BoxNumber),
			BoxNumber: c.BoxNumber,
			Count:     c.Count,
			Progress:  percent(c.Count, total),
		})
		weighted += c.Count * max(0, min(c.BoxNumber-1, learnedBox-1)) * 20
	}
	out.OverallProgress = min(100, int(math.Round(float64(weighted)/float64(total))))
	return out
}

func boxLabel(n int) string {
	return "Box " + strconv.Itoa(n)
}

func percent(n, total int) int {
	return int(math.Round(100 * float64(n) / float64(total)))
}
