package jobs

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/HSouheill/barrim_network/services"
)

// RetryPolicy configures exponential backoff between attempts of a job.
type RetryPolicy struct {
	// MaxAttempts includes the first run.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// JitterFactor is the largest random fraction added to a wait.
	JitterFactor float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     time.Minute,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// Backoff returns the wait before the retry following attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if limit := float64(p.MaxBackoff); p.MaxBackoff > 0 && wait > limit {
		wait = limit
	}
	if p.JitterFactor > 0 {
		wait += wait * p.JitterFactor * rand.Float64()
	}
	return time.Duration(wait)
}

// retryable reports whether running the job again could succeed. A broken
// compensation plan or an unknown job type will fail the same way every time.
func retryable(err error) bool {
	if services.IsConfigurationError(err) {
		return false
	}
	if errors.Is(err, errInvalidJob) {
		return false
	}
	return true
}
