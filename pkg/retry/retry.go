package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// Do executes fn with exponential backoff. Used at startup to wait for
// infrastructure (Postgres, Redis, Typesense) to become reachable.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoWithLog(ctx, cfg, "", fn, nil)
}

// DoWithLog executes fn with exponential backoff, logging each failed
// attempt to logger when it is non-nil.
func DoWithLog(ctx context.Context, cfg Config, name string, fn func() error, logger *zerolog.Logger) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return abortErr(name, attempt-1, ctx.Err(), lastErr)
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if logger != nil {
			logger.Warn().
				Str("target", name).
				Int("attempt", attempt).
				Dur("next_delay", delay).
				Err(err).
				Msg("connection attempt failed, retrying")
		}

		select {
		case <-ctx.Done():
			return abortErr(name, attempt, ctx.Err(), lastErr)
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	if name != "" {
		return fmt.Errorf("%s: max retry attempts (%d) exceeded: %w", name, cfg.MaxAttempts, lastErr)
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

func abortErr(name string, attempts int, ctxErr, lastErr error) error {
	prefix := ""
	if name != "" {
		prefix = name + ": "
	}
	if lastErr != nil {
		return fmt.Errorf("%sretry aborted after %d attempts: %w (last error: %v)", prefix, attempts, ctxErr, lastErr)
	}
	return fmt.Errorf("%sretry aborted: %w", prefix, ctxErr)
}
