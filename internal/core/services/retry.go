package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// retryPolicy runs a provider call with per-attempt timeouts and bounded
// exponential backoff between transient failures.
type retryPolicy struct {
	name           string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	callTimeout    time.Duration

	// sleep waits between attempts. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// retryOutcome reports how a retried call ended.
type retryOutcome struct {
	attempts  int
	permanent bool
}

// do invokes op until it succeeds, fails permanently, the parent context
// ends, or maxAttempts is reached. On failure the last error is returned.
func (p retryPolicy) do(ctx context.Context, op func(ctx context.Context) error) (retryOutcome, error) {
	attempts := p.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	backoff := p.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return retryOutcome{attempts: attempt - 1}, err
		}

		err := p.attempt(ctx, op)
		if err == nil {
			return retryOutcome{attempts: attempt}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return retryOutcome{attempts: attempt}, ctxErr
		}
		if isPermanent(err) {
			return retryOutcome{attempts: attempt, permanent: true}, err
		}

		lastErr = err
		logger.Warn("%s attempt %d/%d failed: %v", p.name, attempt, attempts, err)

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return retryOutcome{attempts: attempt}, err
		}
		backoff = p.next(backoff)
	}

	return retryOutcome{attempts: attempts}, lastErr
}

func (p retryPolicy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.callTimeout <= 0 {
		return op(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return op(callCtx)
}

func (p retryPolicy) next(d time.Duration) time.Duration {
	m := p.multiplier
	if m < 1 {
		m = 2
	}
	n := time.Duration(float64(d) * m)
	if p.maxBackoff > 0 && n > p.maxBackoff {
		n = p.maxBackoff
	}
	return n
}

// finalError marks a failure the policy must not retry.
type finalError struct{ err error }

func (e finalError) Error() string { return e.err.Error() }
func (e finalError) Unwrap() error { return e.err }

// noRetry wraps err so do returns it without another attempt.
func noRetry(err error) error {
	return finalError{err: err}
}

// isPermanent reports whether retrying err cannot help.
// Anything not explicitly rejected or marked by noRetry is treated as transient.
func isPermanent(err error) bool {
	var final finalError
	return errors.Is(err, domain.ErrProviderRejected) || errors.As(err, &final)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
