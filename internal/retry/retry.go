// Package retry runs catalog fetches a fixed number of times with a fixed
// delay between attempts, optionally falling back to a default value once
// the attempts are exhausted.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"anistrm/internal/config"
	"anistrm/internal/logging"
	"anistrm/internal/services"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 3 * time.Second
	DefaultBackoff  = 1
)

// Policy controls how an operation is retried.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// Backoff multiplies the delay after each failed attempt; 1 keeps it fixed.
	Backoff float64
	// Sleeper overrides how waits are performed (useful for tests).
	Sleeper func(time.Duration)
	// ShouldRetry replaces services.Retryable when set.
	ShouldRetry func(error) bool
	Logger      *slog.Logger
}

func (p Policy) retryable(err error) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return services.Retryable(err)
}

// DefaultPolicy returns three attempts three seconds apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay, Backoff: DefaultBackoff}
}

// FromConfig builds a policy from the [retry] section.
func FromConfig(cfg *config.Config, logger *slog.Logger) Policy {
	if cfg == nil {
		p := DefaultPolicy()
		p.Logger = logger
		return p
	}
	return Policy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.RetryDelay(),
		Backoff:  float64(cfg.Retry.Backoff),
		Logger:   logger,
	}
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

// Do runs op until it succeeds, the attempts are exhausted, a permanent error
// is returned, or ctx is done. The last error is returned on failure.
func Do(ctx context.Context, policy Policy, op func(context.Context) error) error {
	attempts := policy.attempts()
	delay := policy.Delay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return err
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || !policy.retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if policy.Logger != nil {
			policy.Logger.Debug("attempt failed; retrying",
				logging.Int("attempt", attempt),
				logging.Int("attempts", attempts),
				logging.Duration("delay", delay),
				logging.Error(err),
			)
		}
		if err := sleep(ctx, policy.Sleeper, delay); err != nil {
			return fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
		if policy.Backoff > 1 {
			delay = time.Duration(float64(delay) * policy.Backoff)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Value runs op like Do and returns its result. When every attempt fails the
// error is logged as a warning and fallback is returned instead.
func Value[T any](ctx context.Context, policy Policy, fallback T, op func(context.Context) (T, error)) T {
	var result T
	err := Do(ctx, policy, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err == nil {
		return result
	}
	logging.WarnWithContext(policy.Logger, "retries exhausted; falling back to an empty result", "retry_exhausted",
		logging.Int("attempts", policy.attempts()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check network access to the catalog and source settings"),
		logging.String(logging.FieldImpact, "this run processes no entries from the failed source"),
	)
	return fallback
}

func sleep(ctx context.Context, sleeper func(time.Duration), delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if sleeper != nil {
		sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
