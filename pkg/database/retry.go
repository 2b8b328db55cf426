package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Backoff controls startup retries against a backing store.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Jitter   float64
}

// StartupBackoff makes three attempts, waiting about 1s then 2s between them.
var StartupBackoff = Backoff{Attempts: 3, Base: time.Second, Jitter: 0.25}

// Wait returns the pause after the given 0-indexed failed attempt, doubling
// Base each time and spreading it by Jitter in both directions.
func (b Backoff) Wait(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := b.Base << attempt
	spread := float64(d) * b.Jitter * (2*rand.Float64() - 1) // #nosec G404 -- jitter only
	return d + time.Duration(spread)
}

// retry runs op until it succeeds, returns an error retryable rejects, or
// the attempts run out. A nil retryable retries every error.
func (b Backoff) retry(ctx context.Context, what string, logger *slog.Logger, retryable func(error) bool, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < b.Attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == b.Attempts-1 {
			break
		}

		wait := b.Wait(attempt)
		if logger != nil {
			logger.Warn(what+" failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", b.Attempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", what, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, b.Attempts, err)
}
