package jobs_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingobox/lingobox/internal/jobs"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/worker"
)

type recordingAggregator struct {
	mu   sync.Mutex
	days []models.UserDay
}

func (a *recordingAggregator) AggregateDay(_ context.Context, userID, day string) (*models.AggregationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.days = append(a.days, models.UserDay{UserID: userID, Day: day})
	return &models.AggregationResult{}, nil
}

func TestWorkerQueue_RunsAggregation(t *testing.T) {
	agg := &recordingAggregator{}
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, agg)

	require.NoError(t, q.EnqueueAggregation("alice", "2024-03-10"))
	require.NoError(t, q.EnqueueAggregation("bob", "2024-03-09"))
	pool.Stop()

	assert.ElementsMatch(t, []models.UserDay{
		{UserID: "alice", Day: "2024-03-10"},
		{UserID: "bob", Day: "2024-03-09"},
	}, agg.days)
}

func TestWorkerQueue_FullQueueIsRejected(t *testing.T) {
	// not started, so nothing drains the queue
	pool := worker.NewPool(1, 1)
	q := jobs.NewWorkerQueue(pool, &recordingAggregator{})

	require.NoError(t, q.EnqueueAggregation("alice", "2024-03-10"))
	assert.ErrorIs(t, q.EnqueueAggregation("alice", "2024-03-11"), worker.ErrQueueFull)

	pool.Stop()
	assert.ErrorIs(t, q.EnqueueAggregation("alice", "2024-03-12"), worker.ErrStopped)
}
