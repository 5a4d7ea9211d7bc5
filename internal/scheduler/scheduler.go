package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/semaphore"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
)

// DefaultLookback bounds how far back the sweep looks for uncounted events.
const DefaultLookback = 48 * time.Hour

// ActivityAggregator is the slice of the activity service the sweep needs.
type ActivityAggregator interface {
	PendingDays(ctx context.Context, since time.Time) ([]models.UserDay, error)
	AggregateDay(ctx context.Context, userID, day string) (*models.AggregationResult, error)
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Days   int
	Failed int
}

// Sweeper re-runs aggregation for every day that still has uncounted events.
type Sweeper struct {
	activity    ActivityAggregator
	clock       clock.Clock
	lookback    time.Duration
	concurrency int
}

func NewSweeper(activity ActivityAggregator, clk clock.Clock, lookback time.Duration, concurrency int) *Sweeper {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{activity: activity, clock: clk, lookback: lookback, concurrency: concurrency}
}

// Sweep aggregates pending days concurrently. A failed day is logged and left
// for the next sweep; it does not stop the others.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	log := logger.FromContext(ctx).WithPrefix("sweep")

	days, err := s.activity.PendingDays(ctx, s.clock.Now().Add(-s.lookback))
	if err != nil {
		return SweepResult{}, err
	}
	if len(days) == 0 {
		log.Debug("nothing to aggregate")
		return SweepResult{}, nil
	}
	log.Info("aggregating %d pending days", len(days))

	var (
		failed atomic.Int32
		wg     sync.WaitGroup
	)
	sem := semaphore.NewWeighted(int64(s.concurrency))
	for _, ud := range days {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(ud models.UserDay) {
			defer wg.Done()
			defer sem.Release(1)
			if _, err := s.activity.AggregateDay(ctx, ud.UserID, ud.Day); err != nil {
				failed.Add(1)
				log.WithFields(map[string]any{"user_id": ud.UserID, "day": ud.Day}).Error("aggregation failed: %v", err)
			}
		}(ud)
	}
	wg.Wait()

	res := SweepResult{Days: len(days), Failed: int(failed.Load())}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   *Sweeper
	interval  time.Duration
	timeout   time.Duration
	log       *logger.Logger
}

// New creates a new scheduler instance. An interval of zero disables the sweep.
func New(sweeper *Sweeper, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		timeout:   5 * time.Minute,
		log:       logger.Default().WithPrefix("scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("aggregation sweep disabled")
		return nil
	}
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		runCtx, cancel := context.WithTimeout(logger.NewContext(ctx, s.log), s.timeout)
		defer cancel()
		res, err := s.sweeper.Sweep(runCtx)
		if err != nil {
			s.log.Error("sweep failed: %v", err)
			return
		}
		if res.Days > 0 {
			s.log.Info("sweep finished: days=%d failed=%d", res.Days, res.Failed)
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("aggregation sweep every %s", s.interval)
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
