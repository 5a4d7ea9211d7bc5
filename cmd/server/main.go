package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/config"
	"github.com/lingobox/lingobox/internal/db"
	"github.com/lingobox/lingobox/internal/lock"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/repository/sqlstore"
	"github.com/lingobox/lingobox/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg config.Config
	log *logger.Logger
	db  *db.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "lingobox",
		Short:         "Spaced-repetition flashcards and daily learning activity",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newImportCardsCmd(a),
		newReaggregateCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) init() error {
	a.cfg = config.Load()
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.log = logger.New(
		logger.WithLevel(logger.ParseLevel(a.cfg.LogLevel)),
		logger.WithColors(a.cfg.LogColors),
	)
	logger.SetDefault(a.log)
	return nil
}

// openDB opens the database and applies pending migrations.
func (a *app) openDB() (*db.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	a.log.Debug("opening database: driver=%s", a.cfg.DBDriver)
	d, err := db.Open(a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = d
	return d, nil
}

func (a *app) close() {
	if a.db != nil {
		a.log.Debug("closing database connection")
		_ = a.db.Close()
	}
}

// locker picks the Redis lock when REDIS_ADDR is set, an in-process one otherwise.
func (a *app) locker(ctx context.Context) (lock.Locker, func(), error) {
	if a.cfg.RedisAddr == "" {
		a.log.Info("using in-process aggregation lock")
		return lock.NewKeyedMutex(), func() {}, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := lock.NewRedisClient(pingCtx, a.cfg.RedisAddr, a.cfg.RedisPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	a.log.Info("using redis aggregation lock at %s", a.cfg.RedisAddr)
	return lock.NewRedisLocker(client, a.cfg.LockTTL), func() { _ = client.Close() }, nil
}

// activityService builds the activity service over d.
func (a *app) activityService(d *db.DB, locker lock.Locker, clk clock.Clock) services.ActivityService {
	return services.NewActivityService(
		d,
		sqlstore.NewActivityEventRepository(d),
		sqlstore.NewDailyActivityRepository(d),
		locker,
		clk,
		a.cfg.Location(),
	)
}
