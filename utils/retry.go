package utils

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	Backoff     Backoff
}

// Do executes fn with backoff between attempts. Context cancellation stops
// retries immediately and returns the last error.
func (r RetryConfig) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < attempts {
			zap.L().Warn("retrying operation",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(lastErr),
			)
			if !r.Backoff.Sleep(ctx, attempt-1) {
				return lastErr
			}
		}
	}

	return eris.Wrapf(lastErr, "%s failed after %d attempts", operation, attempts)
}
