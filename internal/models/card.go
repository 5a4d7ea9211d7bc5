package models

import (
	"strings"
	"time"
)

// CardSource records how a card entered the deck.
type CardSource string

const (
	CardSourceManual     CardSource = "manual"
	CardSourceTemplate   CardSource = "template"
	CardSourceVocabulary CardSource = "vocabulary"
)

func (s CardSource) Valid() bool {
	switch s {
	case CardSourceManual, CardSourceTemplate, CardSourceVocabulary:
		return true
	}
	return false
}

// FrontKey is the case-folded form of a card front used for duplicate lookups.
func FrontKey(front string) string {
	return strings.ToLower(strings.TrimSpace(front))
}

// Card is a vocabulary flashcard with its Leitner scheduling state.
type Card struct {
	ID             int64      `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	BookID         *int64     `db:"book_id" json:"bookId,omitempty"`
	Front          string     `db:"front" json:"front"`
	Back           string     `db:"back" json:"back"`
	Hint           string     `db:"hint" json:"hint,omitempty"`
	Source         CardSource `db:"source" json:"source"`
	BoxNumber      int        `db:"box_number" json:"boxNumber"`
	LastReviewedAt time.Time  `db:"last_reviewed_at" json:"lastReviewedAt"`
	NextReviewAt   time.Time  `db:"next_review_at" json:"nextReviewAt"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// DueCard is the projection returned by the due-cards listing.
type DueCard struct {
	ID           int64     `db:"id" json:"id"`
	Front        string    `db:"front" json:"front"`
	Back         string    `db:"back" json:"back"`
	BoxNumber    int       `db:"box_number" json:"boxNumber"`
	NextReviewAt time.Time `db:"next_review_at" json:"-"`
}

// Review is an immutable record of one review outcome.
type Review struct {
	ID        int64     `db:"id" json:"id"`
	CardID    int64     `db:"card_id" json:"cardId"`
	UserID    string    `db:"user_id" json:"userId"`
	IsCorrect bool      `db:"is_correct" json:"isCorrect"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BoxCount is one row of the per-box distribution.
type BoxCount struct {
	BoxNumber int `db:"box_number"`
	Count     int `db:"count"`
}

// CardFilter narrows card listings.
type CardFilter struct {
	UserID string
	BookID *int64
	Limit  int
	Offset int
}

// BoxProgress is one bar of the flashcard progress chart.
type BoxProgress struct {
	Box       string `json:"box"`
	BoxNumber int    `json:"boxNumber"`
	Count     int    `json:"count"`
	Progress  int    `json:"progress"`
}

// FlashcardProgress summarizes a user's deck.
type FlashcardProgress struct {
	Data            []BoxProgress `json:"data"`
	OverallProgress int           `json:"overallProgress"`
	TotalCards      int           `json:"totalCards"`
	DueCards        int           `json:"dueCards"`
}

// CreateCardInput carries the fields accepted when creating a card.
type CreateCardInput struct {
	Front  string     `json:"front" validate:"required,max=500"`
	Back   string     `json:"back" validate:"required,max=500"`
	Hint   string     `json:"hint" validate:"max=1000"`
	BookID *int64     `json:"bookId" validate:"omitempty,gt=0"`
	Source CardSource `json:"-"`
}

// CaptureResult is returned by the vocabulary capture path.
type CaptureResult struct {
	Card    Card `json:"card"`
	Created bool `json:"created"`
}

// ImportRow is one parsed template row.
type ImportRow struct {
	Line  int
	Front string
	Back  string
	Hint  string
}

// ImportResult reports the outcome of a template import.
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}
