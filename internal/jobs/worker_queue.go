package jobs

import (
	"github.com/lingobox/lingobox/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	aggregationPool *worker.Pool
	aggregator      worker.Aggregator
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(aggregationPool *worker.Pool, aggregator worker.Aggregator) JobQueue {
	return &WorkerQueue{
		aggregationPool: aggregationPool,
		aggregator:      aggregator,
	}
}

func (q *WorkerQueue) EnqueueAggregation(userID, day string) error {
	return q.aggregationPool.TrySubmit(&worker.AggregateDayJob{
		Aggregator: q.aggregator,
		UserID:     userID,
		Day:        day,
	})
}
