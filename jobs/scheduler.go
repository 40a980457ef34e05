package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/services"
)

// cycleKeyTTL keeps the monthly dedup key well past the month it guards.
const cycleKeyTTL = 62 * 24 * time.Hour

// Scheduler enqueues the periodic batches. Every tick refreshes the current
// period's snapshot and releases; the first tick of a new month also settles
// the month that just closed, exactly once across all schedulers.
type Scheduler struct {
	queue       Queue
	interval    time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewScheduler(queue Queue, interval time.Duration, maxAttempts int) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{queue: queue, interval: interval, maxAttempts: maxAttempts, now: time.Now}
}

// Run ticks immediately and then on every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.Tick(ctx); err != nil {
			log.Printf("Scheduler tick failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) Tick(ctx context.Context) error {
	current := models.PeriodOf(s.now())
	for _, jobType := range []string{services.JobRankSnapshot, services.JobReleaseOnHold} {
		if err := s.enqueue(ctx, jobType, current); err != nil {
			return err
		}
	}

	closed := current.Previous()
	first, err := s.queue.Once(ctx, "cycle:"+closed.String(), cycleKeyTTL)
	if err != nil {
		return fmt.Errorf("failed to claim monthly cycle for %s: %w", closed, err)
	}
	if !first {
		return nil
	}
	log.Printf("Starting monthly cycle for %s", closed)
	return s.enqueue(ctx, MonthlyCycle[0], closed, MonthlyCycle[1:]...)
}

// EnqueueCycle starts the monthly settlement chain for period.
func (s *Scheduler) EnqueueCycle(ctx context.Context, period models.Period) error {
	return s.enqueue(ctx, MonthlyCycle[0], period, MonthlyCycle[1:]...)
}

// Enqueue adds a single job for period.
func (s *Scheduler) Enqueue(ctx context.Context, jobType string, period models.Period) (Job, error) {
	job, err := NewJob(jobType, period)
	if err != nil {
		return Job{}, err
	}
	job.MaxAttempts = s.maxAttempts
	return job, s.queue.Enqueue(ctx, job)
}

func (s *Scheduler) enqueue(ctx context.Context, jobType string, period models.Period, next ...string) error {
	job, err := NewJob(jobType, period, next...)
	if err != nil {
		return err
	}
	job.MaxAttempts = s.maxAttempts
	return s.queue.Enqueue(ctx, job)
}
