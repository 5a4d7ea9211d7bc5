package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lingobox/lingobox/internal/api"
	"github.com/lingobox/lingobox/internal/auth"
	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/jobs"
	"github.com/lingobox/lingobox/internal/repository/sqlstore"
	"github.com/lingobox/lingobox/internal/scheduler"
	"github.com/lingobox/lingobox/internal/services"
	"github.com/lingobox/lingobox/internal/worker"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, aggregation workers and the sweep scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	log := a.log
	cfg := a.cfg

	log.Info("===========================================")
	log.Info("Lingobox Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_driver=%s", cfg.DBDriver)
	log.Debug("timezone=%s", cfg.Timezone)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("aggregation_worker_count=%d", cfg.AggregationWorkerCount)
	log.Debug("aggregation_queue_size=%d", cfg.AggregationQueueSize)
	log.Debug("sweep_interval=%s", cfg.SweepInterval)
	log.Debug("sweep_concurrency=%d", cfg.SweepConcurrency)

	database, err := a.openDB()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	locker, closeLocker, err := a.locker(ctx)
	if err != nil {
		return err
	}
	defer closeLocker()

	clk := clock.Real{}

	// Repositories
	cards := sqlstore.NewCardRepository(database)
	books := sqlstore.NewBookRepository(database)
	daily := sqlstore.NewDailyActivityRepository(database)

	// Services
	activityService := a.activityService(database, locker, clk)

	aggregationPool := worker.NewPool(cfg.AggregationWorkerCount, cfg.AggregationQueueSize)
	sched := scheduler.New(
		scheduler.NewSweeper(activityService, clk, scheduler.DefaultLookback, cfg.SweepConcurrency),
		cfg.SweepInterval,
	)

	srv := &api.Server{
		Reviews:        services.NewReviewService(database, cards, sqlstore.NewReviewRepository(database), clk),
		Cards:          services.NewCardService(cards, books, clk),
		Books:          services.NewBookService(books, clk),
		Activity:       activityService,
		Levels:         services.NewLevelService(daily, activityService),
		Imports:        services.NewImportService(database, cards, books, clk),
		Users:          services.NewUserService(sqlstore.NewUserRepository(database), clk),
		Auth:           auth.NewJWTAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, clk),
		JobQueue:       jobs.NewWorkerQueue(aggregationPool, activityService),
		Limiter:        api.NewRateLimiter(cfg.ActivityRateLimit, cfg.ActivityRateBurst),
		Health:         database,
		MaxImportBytes: cfg.MaxImportBytes,
	}

	aggregationPool.Start(ctx)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		log.Info("received signal %v, initiating graceful shutdown", sig)
	case err := <-serveErr:
		log.Error("HTTP server error: %v", err)
		runErr = err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping scheduler")
	sched.Stop()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Drain queued aggregations before the context goes away.
	log.Info("stopping aggregation pool, draining %d queued jobs", aggregationPool.QueueSize())
	aggregationPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("Lingobox Server Stopped")
	log.Info("===========================================")
	return runErr
}
