// Package retry provides jittered delays and capped exponential backoff
// for outbound source fetches.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/job-scanner/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // Total attempts, including the first call
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the backoff delay
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultConfig returns the default retry configuration.
// Pattern: 1s, 2s, capped at 10s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// AddJitter returns base varied by ±pct percent, uniformly at random.
// Spreads retries so repeated runs do not hit providers in lockstep.
func AddJitter(base time.Duration, pct int) time.Duration {
	if base <= 0 || pct <= 0 {
		return base
	}
	span := float64(base) * float64(pct) / 100.0
	offset := (rand.Float64()*2 - 1) * span
	return time.Duration(float64(base) + offset)
}

// Sleep waits for d or until the context is cancelled, whichever comes
// first. Returns the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// permanentError marks an error that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps an error so WithBackoff returns it without further
// attempts. Used for responses where retrying cannot change the outcome,
// like a 404.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithBackoff calls fn up to cfg.MaxAttempts times, waiting a capped
// exponential backoff between attempts. The last error is returned after
// attempts are exhausted. Errors wrapped with Permanent stop the loop
// immediately.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		var pe *permanentError
		if errors.As(lastErr, &pe) {
			return pe.err
		}
		if lastErr == nil {
			if attempt > 1 {
				logger.WithField("attempts", attempt).Info("Operation succeeded after retry")
			}
			return nil
		}

		if attempt >= cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return lastErr
		}

		delay := backoffDelay(cfg, attempt)
		logger.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": cfg.MaxAttempts,
			"delay":       delay.String(),
			"error":       lastErr.Error(),
		}).Warn("Operation failed, retrying with backoff")

		if err := Sleep(ctx, delay); err != nil {
			return lastErr
		}
	}

	logger.WithFields(map[string]interface{}{
		"attempts": cfg.MaxAttempts,
		"error":    lastErr.Error(),
	}).Error("Operation failed after max retry attempts")
	return lastErr
}

// backoffDelay computes initialDelay * multiplier^(attempt-1), capped at
// MaxDelay, with ±20% jitter.
func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return AddJitter(time.Duration(delay), 20)
}
