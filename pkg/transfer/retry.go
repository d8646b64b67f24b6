package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted wraps the last error once every attempt has failed
var ErrRetriesExhausted = errors.New("retries exhausted")

// DelayFunc returns the wait before the next attempt; attempt starts at 1
type DelayFunc func(attempt int) time.Duration

// LinearBackoff waits base, 2*base, 3*base, ...
func LinearBackoff(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// RetryPolicy bounds the attempts of an operation
type RetryPolicy struct {
	MaxAttempts int
	Delay       DelayFunc
	// ShouldRetry reports whether an error is worth another attempt; nil retries everything
	ShouldRetry func(error) bool
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, err error)
}

// Retry runs op until it succeeds or the policy gives up
func Retry(ctx context.Context, policy RetryPolicy, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	_, err := RetryValue(ctx, policy, logger, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryValue runs fn until it succeeds or the policy gives up and returns its value
func RetryValue[T any](ctx context.Context, policy RetryPolicy, logger *zap.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%s: %w: %w", op, ctxErr, err)
		}
		if policy.ShouldRetry != nil && !policy.ShouldRetry(err) {
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		if attempt == attempts {
			break
		}

		var delay time.Duration
		if policy.Delay != nil {
			delay = policy.Delay(attempt)
		}
		logger.Warn("Operation failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}

		if err := sleepContext(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: %w", op, err)
		}
	}

	return zero, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrRetriesExhausted, attempts, lastErr)
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
