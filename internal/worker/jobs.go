package worker

import (
	"context"

	"github.com/lingobox/lingobox/internal/models"
)

// Aggregator folds uncounted events into one user's day.
type Aggregator interface {
	AggregateDay(ctx context.Context, userID, day string) (*models.AggregationResult, error)
}

// AggregateDayJob runs deferred aggregation for one (user, day).
type AggregateDayJob struct {
	Aggregator Aggregator
	UserID     string
	Day        string
}

func (j *AggregateDayJob) Name() string { return "aggregate_day" }

func (j *AggregateDayJob) Run(ctx context.Context) error {
	_, err := j.Aggregator.AggregateDay(ctx, j.UserID, j.Day)
	return err
}
