package jobs

import (
	"context"
	"time"
)

// Queue is an at-least-once work queue. A dequeued job stays in flight until
// it is acknowledged or dead-lettered.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// EnqueueAt schedules job to become ready at at.
	EnqueueAt(ctx context.Context, job Job, at time.Time) error
	// Dequeue blocks up to timeout and returns ErrNoJob when nothing is ready.
	Dequeue(ctx context.Context, timeout time.Duration) (Job, error)
	Ack(ctx context.Context, job Job) error
	// DeadLetter acknowledges job and parks it for manual review.
	DeadLetter(ctx context.Context, job Job) error
	Dead(ctx context.Context, limit int64) ([]Job, error)
	// PromoteDue moves delayed jobs whose time has come to the ready queue.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	// Recover requeues jobs left in flight by a crashed worker.
	Recover(ctx context.Context) (int, error)
	// Once reports true the first time key is claimed within ttl.
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
