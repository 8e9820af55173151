// Package resilience wraps the fleet-store collaborator calls with retry,
// circuit-breaker, and health-monitoring behaviour. The scoring core itself
// never retries; everything here sits at the collaborator boundary.
package resilience

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy retries an operation with exponential backoff.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy matches the conventional 3 attempts doubling from 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, BackoffFactor: 2.0}
}

// ExhaustedError reports that every retry attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Execute runs fn until it succeeds, the attempts are exhausted, or the context
// is done. The delay between attempts grows by BackoffFactor.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.InitialDelay
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 2.0
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * factor)
	}
	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}
