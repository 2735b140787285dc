package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/scribe/internal/logging"
)

// RetryConfig holds retry configuration for API calls.
type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	Timeout           time.Duration `yaml:"timeout"` // per-attempt
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Timeout:           60 * time.Second,
	}
}

// retryWithBackoff executes an operation with retry and exponential
// backoff. Persistent errors (auth, bad request) abort immediately.
func (g *AnthropicGenerator) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	log := logging.Named("generate")

	var lastErr error
	backoff := g.retry.InitialBackoff

	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, g.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				log.Info().Str("op", operation).Int("retries", attempt).Msg("succeeded after retries")
			}
			return nil
		}
		lastErr = err

		if !Transient(err) {
			log.Error().Err(err).Str("op", operation).Msg("non-retriable error")
			return err
		}
		if attempt == g.retry.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: context canceled: %w", operation, ctx.Err())
		}

		log.Warn().Err(err).Str("op", operation).
			Int("attempt", attempt+1).Dur("backoff", backoff).Msg("retrying")

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * g.retry.BackoffMultiplier)
			if backoff > g.retry.MaxBackoff {
				backoff = g.retry.MaxBackoff
			}
		case <-ctx.Done():
			return fmt.Errorf("%s: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, g.retry.MaxRetries+1, lastErr)
}

// Transient reports whether an error is worth retrying: timeouts, rate
// limits, server errors, and network blips. Auth errors, other client
// errors, and a refused connection are persistent; those fail the call
// immediately.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "overloaded") {
		return true
	}
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") {
		return true
	}
	// Connection refused means the service is down entirely; the cycle
	// fails immediately rather than burning the retry budget.
	if strings.Contains(errStr, "connection refused") {
		return false
	}
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "network is unreachable") {
		return true
	}

	return false
}
