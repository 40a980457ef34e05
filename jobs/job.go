// Package jobs runs the periodic network batches on a durable work queue.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/services"
)

// ErrNoJob is returned by Dequeue when nothing became ready before the timeout.
var ErrNoJob = errors.New("no job ready")

// MonthlyCycle is the order in which a closed period is settled.
var MonthlyCycle = []string{
	services.JobRankSnapshot,
	services.JobVoidExpired,
	services.JobReleaseOnHold,
	services.JobBonusDistribution,
}

// Job is one batch run for one period. Next holds the job types to enqueue,
// in order, once this one succeeds.
type Job struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Period      string    `json:"period"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"maxAttempts"`
	Next        []string  `json:"next,omitempty"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
	LastError   string    `json:"lastError,omitempty"`
	// FailedIDs lists the accounts still failing when a batch was
	// dead-lettered after a partial failure.
	FailedIDs []string `json:"failedIds,omitempty"`

	// raw is the payload as stored in the queue, needed to acknowledge it.
	raw string
}

// NewJob creates a job for period. Unknown types are rejected.
func NewJob(jobType string, period models.Period, next ...string) (Job, error) {
	if !KnownType(jobType) {
		return Job{}, fmt.Errorf("unknown job type %q", jobType)
	}
	if period.IsZero() {
		return Job{}, errors.New("job period is required")
	}
	return Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Period:     period.String(),
		Next:       next,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// KnownType reports whether a handler exists for jobType.
func KnownType(jobType string) bool {
	for _, t := range MonthlyCycle {
		if t == jobType {
			return true
		}
	}
	return false
}

// followUp builds the next job of the chain, if any.
func (j Job) followUp() (Job, bool) {
	if len(j.Next) == 0 {
		return Job{}, false
	}
	period, err := models.ParsePeriod(j.Period)
	if err != nil {
		return Job{}, false
	}
	next, err := NewJob(j.Next[0], period, j.Next[1:]...)
	if err != nil {
		return Job{}, false
	}
	next.MaxAttempts = j.MaxAttempts
	return next, true
}

func (j Job) encode() (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJob(raw string) (Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return Job{}, fmt.Errorf("failed to decode job: %w", err)
	}
	j.raw = raw
	return j, nil
}
