package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueAggregation schedules aggregation of one user's day without waiting
	// for a queue slot. It fails when the queue is full or stopped.
	EnqueueAggregation(userID, day string) error
}
