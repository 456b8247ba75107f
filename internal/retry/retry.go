// Package retry provides a bounded exponential-backoff wrapper applied
// uniformly around pipeline stage execution.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Default policy values, applied when a Policy field is unset.
const (
	DefaultMaxAttempts = 3
	DefaultMultiplier  = 1 * time.Second
	DefaultWaitMax     = 10 * time.Second
)

// Policy configures the retry behaviour. The wait before attempt k+1 is
// min(WaitMax, Multiplier * 2^(k-1)).
type Policy struct {
	MaxAttempts int
	Multiplier  time.Duration
	WaitMax     time.Duration

	// Sleep overrides the backoff sleep. Tests inject a recorder here to
	// keep retries deterministic. When nil a context-aware timer is used.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Multiplier <= 0 {
		p.Multiplier = DefaultMultiplier
	}
	if p.WaitMax <= 0 {
		p.WaitMax = DefaultWaitMax
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Do executes fn with exponential back-off retry. It calls fn at most
// Policy.MaxAttempts times and logs a warning on every attempt after the
// first. After exhaustion the last error is returned unchanged so callers
// can inspect the underlying cause.
func Do[T any](ctx context.Context, log *zap.Logger, name string, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		if attempt > 1 {
			log.Warn("retrying stage",
				zap.String("stage", name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.MaxAttempts),
			)
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		log.Error("stage attempt failed",
			zap.String("stage", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == p.MaxAttempts {
			break
		}
		if err := p.Sleep(ctx, backoffWait(p, attempt)); err != nil {
			// Context cancelled mid-backoff; surface the stage error,
			// which is more diagnostic than a bare cancellation.
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// backoffWait computes the wait after the k-th failed attempt (1-based).
func backoffWait(p Policy, attempt int) time.Duration {
	wait := p.Multiplier
	for i := 1; i < attempt && wait < p.WaitMax; i++ {
		wait *= 2
	}
	if wait > p.WaitMax {
		wait = p.WaitMax
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
