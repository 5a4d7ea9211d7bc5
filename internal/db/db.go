package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lingobox/lingobox/internal/logger"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type DB struct {
	*sqlx.DB
	log *logger.Logger
}

// Open connects to the database and applies pending migrations.
func Open(driver, dsn string) (*DB, error) {
	log := logger.Default().WithPrefix("db").WithField("driver", driver)

	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	log.Info("opening database")

	sqlDB, err := sqlx.Open(driver, dsn)
	if err != nil {
		log.Error("failed to open database: %v", err)
		return nil, err
	}
	if driver == DriverSQLite {
		// Single writer; also keeps an in-memory database alive across calls.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	db := &DB{DB: sqlDB, log: log}

	if err := db.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		log.Error("failed to reach database: %v", err)
		return nil, err
	}

	log.Debug("applying migrations")
	if err := db.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		log.Error("failed to apply migrations: %v", err)
		return nil, err
	}

	log.Info("database ready")
	return db, nil
}

// IsPostgres reports whether the connection speaks the postgres dialect.
func (db *DB) IsPostgres() bool {
	return db.DriverName() == DriverPostgres
}

// Builder returns a squirrel builder with the dialect's placeholder format.
func (db *DB) Builder() sq.StatementBuilderType {
	if db.IsPostgres() {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// ForUpdate adds a row lock where the dialect supports one. SQLite serializes
// writers on its single connection instead.
func (db *DB) ForUpdate(b sq.SelectBuilder) sq.SelectBuilder {
	if db.IsPostgres() {
		return b.Suffix("FOR UPDATE")
	}
	return b
}

// Migrate applies every embedded migration for the dialect that is not yet
// recorded in schema_migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return err
	}

	dir := "migrations/sqlite"
	if db.IsPostgres() {
		dir = "migrations/postgres"
	}
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		version := entry.Name()
		applied, err := db.isMigrationApplied(ctx, version)
		if err != nil {
			return err
		}
		if applied {
			db.log.Debug("migration %s already applied, skipping", version)
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile(dir + "/" + version)
		if err != nil {
			return err
		}
		db.log.Info("applying migration: %s", version)
		err = db.InTx(ctx, func(ctx context.Context) error {
			ext := db.Ext(ctx)
			if _, err := ext.ExecContext(ctx, string(sqlBytes)); err != nil {
				return err
			}
			_, err := ext.ExecContext(ctx, db.Rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), version)
			return err
		})
		if err != nil {
			db.log.Error("migration %s failed: %v", version, err)
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		db.log.Info("migration %s applied successfully", version)
	}
	return nil
}

// AppliedMigrations lists recorded migration versions in order.
func (db *DB) AppliedMigrations(ctx context.Context) ([]string, error) {
	var versions []string
	err := db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations ORDER BY version`)
	return versions, err
}

func (db *DB) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var v string
	err := db.GetContext(ctx, &v, db.Rebind(`SELECT version FROM schema_migrations WHERE version = ?`), version)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

type txKey struct{}

// InTx runs fn inside a transaction carried by the context passed to fn.
// A call made while a transaction is already open joins it.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	log := logger.FromContext(ctx).WithPrefix("db")
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	log.Debug("transaction committed")
	return nil
}

// Ext returns the transaction open on ctx, or the pool.
func (db *DB) Ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}
