package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsOnLaterAttempt(t *testing.T) {
	var slept []time.Duration
	policy := Policy{
		Attempts: 5,
		Delay:    time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), policy, func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestDoExhausts(t *testing.T) {
	notFound := errors.New("not found")
	sleeps := 0
	policy := Policy{
		Attempts: 5,
		Delay:    time.Second,
		Sleep: func(_ context.Context, _ time.Duration) error {
			sleeps++
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), policy, func(context.Context, int) error {
		calls++
		return notFound
	})

	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, notFound)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 4, sleeps, "no pause after the last attempt")
}

func TestDoStopsOnFinalError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5, Sleep: NoSleep}, func(context.Context, int) error {
		calls++
		return fmt.Errorf("broken store: %w", Stop)
	})

	require.ErrorIs(t, err, Stop)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, calls)
}

func TestDoRunsAtLeastOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(context.Context, int) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
