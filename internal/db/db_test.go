package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lingobox/lingobox/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()

	versions, err := d.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_activity.sql"}, versions)

	require.NoError(t, d.Migrate(ctx))
	again, err := d.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, versions, again)
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := db.Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.InTx(ctx, func(ctx context.Context) error {
		_, err := d.Ext(ctx).ExecContext(ctx, `INSERT INTO users (id, role, created_at) VALUES ('u1', 'user', '2024-01-01 00:00:00')`)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, d.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 0, n)
}

func TestInTx_NestedCallJoinsOuter(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()

	err := d.InTx(ctx, func(outer context.Context) error {
		return d.InTx(outer, func(inner context.Context) error {
			assert.Same(t, d.Ext(outer), d.Ext(inner))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Same(t, d.DB, d.Ext(ctx))
}

func TestForeignKeysEnforced(t *testing.T) {
	d := openMemory(t)
	_, err := d.ExecContext(context.Background(),
		`INSERT INTO books (user_id, title, created_at) VALUES ('ghost', 't', '2024-01-01 00:00:00')`)
	assert.Error(t, err)
}

func TestBuilderPlaceholders(t *testing.T) {
	d := openMemory(t)
	q, _, err := d.Builder().Select("id").From("cards").Where("user_id = ?", "u1").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM cards WHERE user_id = ?", q)
	assert.False(t, d.IsPostgres())
}
