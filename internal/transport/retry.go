package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig bounds the retry loop around a single request.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig is used when no retry option is given.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     2,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
}

// withRetry calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. Backoff doubles up to MaxBackoff.
func withRetry(ctx context.Context, config RetryConfig, logger logrus.FieldLogger, fn func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		if attempt < config.MaxRetries {
			logger.WithError(err).Warnf("retry attempt %d/%d failed", attempt+1, config.MaxRetries)
		}
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, lastErr)
}
