package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/models"
)

// Epoch is the fixed instant most tests schedule around.
var Epoch = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test ends.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// SeedUser inserts a user row directly.
func SeedUser(t *testing.T, d *db.DB, id string) {
	t.Helper()
	_, err := d.ExecContext(context.Background(),
		d.Rebind(`INSERT INTO users (id, role, created_at) VALUES (?, ?, ?)`), id, models.RoleUser, Epoch)
	require.NoError(t, err)
}

// SeedCard inserts a card owned by userID with the given box and due time.
func SeedCard(t *testing.T, d *db.DB, userID, front string, box int, due time.Time) int64 {
	t.Helper()
	var id int64
	err := d.QueryRowxContext(context.Background(), d.Rebind(`
INSERT INTO cards (user_id, front, front_key, back, hint, source, box_number, last_reviewed_at, next_review_at, created_at)
VALUES (?, ?, ?, ?, '', 'manual', ?, ?, ?, ?) RETURNING id`),
		userID, front, models.FrontKey(front), front+"-back", box, Epoch.UTC(), due.UTC(), Epoch.UTC()).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedEvent inserts an uncounted activity event.
func SeedEvent(t *testing.T, d *db.DB, userID string, kind models.ActivityKind, secs float64, at time.Time) int64 {
	t.Helper()
	var id int64
	err := d.QueryRowxContext(context.Background(), d.Rebind(`
INSERT INTO activity_events (user_id, kind, duration_seconds, counted, created_at)
VALUES (?, ?, ?, ?, ?) RETURNING id`),
		userID, string(kind), secs, false, at.UTC()).Scan(&id)
	require.NoError(t, err)
	return id
}
