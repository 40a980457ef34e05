package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

type delayedJob struct {
	job Job
	at  time.Time
}

// MemoryQueue is a process-local Queue for tests and STORAGE=memory runs.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      []Job
	processing map[string]Job
	delayed    []delayedJob
	dead       []Job
	once       map[string]time.Time
	signal     chan struct{}
	now        func() time.Time
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		processing: make(map[string]Job),
		once:       make(map[string]time.Time),
		signal:     make(chan struct{}, 1),
		now:        time.Now,
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	q.ready = append(q.ready, job)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *MemoryQueue) EnqueueAt(_ context.Context, job Job, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delayed = append(q.delayed, delayedJob{job: job, at: at})
	sort.SliceStable(q.delayed, func(i, j int) bool { return q.delayed[i].at.Before(q.delayed[j].at) })
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		q.mu.Lock()
		if len(q.ready) > 0 {
			job := q.ready[0]
			q.ready = q.ready[1:]
			q.processing[job.ID] = job
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-timer.C:
			return Job{}, ErrNoJob
		case <-q.signal:
		}
	}
}

func (q *MemoryQueue) Ack(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID)
	return nil
}

func (q *MemoryQueue) DeadLetter(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, job.ID)
	q.dead = append([]Job{job}, q.dead...)
	return nil
}

func (q *MemoryQueue) Dead(_ context.Context, limit int64) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := append([]Job(nil), q.dead...)
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *MemoryQueue) PromoteDue(_ context.Context, now time.Time) (int, error) {
	q.mu.Lock()
	n := 0
	for n < len(q.delayed) && !q.delayed[n].at.After(now) {
		q.ready = append(q.ready, q.delayed[n].job)
		n++
	}
	q.delayed = q.delayed[n:]
	q.mu.Unlock()
	if n > 0 {
		q.wake()
	}
	return n, nil
}

func (q *MemoryQueue) Recover(_ context.Context) (int, error) {
	q.mu.Lock()
	n := len(q.processing)
	for id, job := range q.processing {
		q.ready = append(q.ready, job)
		delete(q.processing, id)
	}
	q.mu.Unlock()
	if n > 0 {
		q.wake()
	}
	return n, nil
}

func (q *MemoryQueue) Once(_ context.Context, key string, ttl time.Duration) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	if exp, ok := q.once[key]; ok && now.Before(exp) {
		return false, nil
	}
	q.once[key] = now.Add(ttl)
	return true, nil
}

// Pending returns the number of ready and delayed jobs.
func (q *MemoryQueue) Pending() (ready, delayed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready), len(q.delayed)
}

func (q *MemoryQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
