package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/services"
)

var (
	errInvalidJob = errors.New("invalid job")

	// ErrPartialFailure marks a batch in which some accounts failed. The batch
	// is idempotent, so it is retried as a whole. Once attempts run out the
	// failed accounts are dead-lettered and the chain moves on.
	ErrPartialFailure = errors.New("batch finished with failed accounts")
)

// Handler runs one batch for one period.
type Handler func(ctx context.Context, period models.Period) ([]models.BatchResult, error)

// Worker consumes the queue and runs the engine batches.
type Worker struct {
	queue       Queue
	handlers    map[string]Handler
	policy      RetryPolicy
	concurrency int
	pollTimeout time.Duration
	notifier    services.Notifier
	now         func() time.Time
}

// NewWorker registers a handler per job type on top of engine.
func NewWorker(queue Queue, engine *services.Engine, policy RetryPolicy, concurrency int, notifier services.Notifier) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if notifier == nil {
		notifier = services.NopNotifier{}
	}
	w := &Worker{
		queue:       queue,
		policy:      policy,
		concurrency: concurrency,
		pollTimeout: 5 * time.Second,
		notifier:    notifier,
		now:         time.Now,
	}
	w.handlers = map[string]Handler{
		services.JobRankSnapshot:      single(engine.RunRankSnapshot),
		services.JobReleaseOnHold:     single(engine.ReleaseOnHoldCommissions),
		services.JobVoidExpired:       single(engine.VoidExpiredOnHold),
		services.JobBonusDistribution: engine.RunBonusDistribution,
	}
	return w
}

func single(fn func(context.Context, models.Period) (models.BatchResult, error)) Handler {
	return func(ctx context.Context, period models.Period) ([]models.BatchResult, error) {
		res, err := fn(ctx, period)
		return []models.BatchResult{res}, err
	}
}

// Run consumes jobs until ctx is cancelled. Jobs left in flight by a previous
// process are requeued first.
func (w *Worker) Run(ctx context.Context) error {
	if n, err := w.queue.Recover(ctx); err != nil {
		log.Printf("Warning: failed to recover in-flight jobs: %v", err)
	} else if n > 0 {
		log.Printf("Requeued %d in-flight jobs", n)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := w.queue.PromoteDue(ctx, w.now()); err != nil && ctx.Err() == nil {
					log.Printf("Error promoting delayed jobs: %v", err)
				}
			}
		}
	})
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				job, err := w.queue.Dequeue(ctx, w.pollTimeout)
				if errors.Is(err, ErrNoJob) || ctx.Err() != nil {
					continue
				}
				if err != nil {
					log.Printf("Error dequeuing job: %v", err)
					time.Sleep(time.Second)
					continue
				}
				if err := w.Process(ctx, job); err != nil {
					log.Printf("Error settling job %s: %v", job.ID, err)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Process runs job once and settles it: acknowledged and chained on
// success, rescheduled with backoff on a retryable failure, dead-lettered
// once attempts run out. A batch that only failed for some accounts still
// chains, so one bad account does not hold back the rest of the period.
func (w *Worker) Process(ctx context.Context, job Job) error {
	maxAttempts := job.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = w.policy.MaxAttempts
	}
	job.Attempt++

	start := time.Now()
	results, runErr := w.Execute(ctx, job.Type, job.Period)
	jobDuration.WithLabelValues(job.Type).Observe(time.Since(start).Seconds())

	if runErr == nil {
		jobsProcessed.WithLabelValues(job.Type, "succeeded").Inc()
		if err := w.chain(ctx, job); err != nil {
			return err
		}
		return w.queue.Ack(ctx, job)
	}

	job.LastError = runErr.Error()
	if retryable(runErr) && job.Attempt < maxAttempts {
		wait := w.policy.Backoff(job.Attempt)
		log.Printf("Job %s (%s %s) attempt %d/%d failed, retrying in %s: %v",
			job.ID, job.Type, job.Period, job.Attempt, maxAttempts, wait.Round(time.Millisecond), runErr)
		jobsProcessed.WithLabelValues(job.Type, "retried").Inc()
		if err := w.queue.EnqueueAt(ctx, job, w.now().Add(wait)); err != nil {
			return err
		}
		return w.queue.Ack(ctx, job)
	}

	partial := errors.Is(runErr, ErrPartialFailure)
	if partial {
		for _, r := range results {
			job.FailedIDs = append(job.FailedIDs, r.FailedIDs...)
		}
	}

	log.Printf("Job %s (%s %s) dead-lettered after %d attempts: %v",
		job.ID, job.Type, job.Period, job.Attempt, runErr)
	jobsProcessed.WithLabelValues(job.Type, "dead").Inc()
	w.notifier.QueueEmail(services.EmailDeadLetteredJob, map[string]interface{}{
		"jobId":     job.ID,
		"type":      job.Type,
		"period":    job.Period,
		"attempts":  job.Attempt,
		"error":     job.LastError,
		"failedIds": job.FailedIDs,
	})
	if partial {
		if err := w.chain(ctx, job); err != nil {
			return err
		}
	}
	return w.queue.DeadLetter(ctx, job)
}

func (w *Worker) chain(ctx context.Context, job Job) error {
	next, ok := job.followUp()
	if !ok {
		return nil
	}
	if err := w.queue.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("failed to enqueue %s after %s: %w", next.Type, job.Type, err)
	}
	return nil
}

// Execute runs a handler directly, bypassing the queue.
func (w *Worker) Execute(ctx context.Context, jobType, period string) ([]models.BatchResult, error) {
	handler, ok := w.handlers[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errInvalidJob, jobType)
	}
	p, err := models.ParsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidJob, err)
	}
	results, err := handler(ctx, p)
	if err != nil {
		return results, err
	}
	for _, r := range results {
		if r.Failed > 0 {
			return results, fmt.Errorf("%w: %s had %d", ErrPartialFailure, r.Job, r.Failed)
		}
	}
	return results, nil
}
