package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lingobox/lingobox/internal/models"
)

// ErrNotFound is returned when a row does not exist or is not visible to the caller.
var ErrNotFound = fmt.Errorf("record not found: %w", sql.ErrNoRows)

// ErrDuplicate is returned when an insert violates a uniqueness rule.
var ErrDuplicate = errors.New("duplicate record")

// Transactor runs fn in one storage transaction. Repository calls made with the
// context handed to fn take part in it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository keeps local user rows for referential integrity.
type UserRepository interface {
	Ensure(ctx context.Context, user models.User, now time.Time) error
	Get(ctx context.Context, id string) (*models.User, error)
}

// CardRepository handles flashcard data access
type CardRepository interface {
	Insert(ctx context.Context, card models.Card) (int64, error)
	InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error)
	Get(ctx context.Context, id int64) (*models.Card, error)
	// GetOwnedForUpdate loads a card owned by userID, row-locking it where supported.
	GetOwnedForUpdate(ctx context.Context, userID string, id int64) (*models.Card, error)
	FindByFront(ctx context.Context, userID, front string) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Due(ctx context.Context, userID string, now time.Time) ([]models.DueCard, error)
	UpdateSchedule(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, id int64) error
	CountByBox(ctx context.Context, userID string) ([]models.BoxCount, error)
	CountDue(ctx context.Context, userID string, now time.Time) (int, error)
}

// ReviewRepository is append-only review history.
type ReviewRepository interface {
	Insert(ctx context.Context, review models.Review) (int64, error)
	CountForCard(ctx context.Context, cardID int64) (int, error)
}

// BookRepository handles book data access
type BookRepository interface {
	Insert(ctx context.Context, book models.Book) (int64, error)
	Get(ctx context.Context, id int64) (*models.Book, error)
	ListWithCounts(ctx context.Context, userID string) ([]models.BookWithCount, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityEventRepository stores raw engagement events.
type ActivityEventRepository interface {
	Insert(ctx context.Context, event models.ActivityEvent) (int64, error)
	// Uncounted returns the user's uncounted events created in [from, to).
	Uncounted(ctx context.Context, userID string, from, to time.Time) ([]models.ActivityEvent, error)
	// KindsRecorded returns every kind with at least one event in [from, to), counted or not.
	KindsRecorded(ctx context.Context, userID string, from, to time.Time) (map[models.ActivityKind]bool, error)
	MarkCounted(ctx context.Context, ids []int64, at time.Time) (int, error)
	// PendingSince returns uncounted events created at or after since, oldest first.
	PendingSince(ctx context.Context, since time.Time) ([]models.ActivityEvent, error)
}

// DailyActivityRepository stores the per-day aggregation rows.
type DailyActivityRepository interface {
	// EnsureForUpdate returns the (user, day) row, creating it with every flag
	// false when missing, and row-locks it where supported.
	EnsureForUpdate(ctx context.Context, userID, day string, now time.Time) (*models.DailyActivity, error)
	Get(ctx context.Context, userID, day string) (*models.DailyActivity, error)
	Update(ctx context.Context, d models.DailyActivity) error
	CountPerfectDays(ctx context.Context, userID string) (int, error)
}
