// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExhausted is returned once every attempt has failed.
	ErrExhausted = errors.New("retry attempts exhausted")
	// Stop marks an error as final. Wrap it to end Do without further attempts.
	Stop = errors.New("stop retrying")
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy bounds a retry loop. Attempts below one are treated as one.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Sleep    Sleeper
}

// Sleep is the real-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
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

// NoSleep returns immediately. Tests use it to skip the delay.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Do calls fn until it returns nil, returns an error wrapping Stop, or the
// attempts run out. The pause happens only between attempts.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, Stop) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, policy.Delay); err != nil {
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
