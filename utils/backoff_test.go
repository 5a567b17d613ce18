package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayGrowsToCap(t *testing.T) {
	t.Parallel()

	b := Backoff{
		Initial:    100 * time.Millisecond,
		Max:        time.Second,
		Multiplier: 2,
		Jitter:     0,
	}

	var prev time.Duration
	for attempt := 0; attempt < 10; attempt++ {
		d := b.Delay(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, d, b.Max, "attempt %d", attempt)
		prev = d
	}

	assert.Equal(t, 100*time.Millisecond, b.Delay(0))
	assert.Equal(t, 200*time.Millisecond, b.Delay(1))
	assert.Equal(t, time.Second, b.Delay(9))
}

func TestBackoffJitterStaysInBounds(t *testing.T) {
	t.Parallel()

	b := Backoff{
		Initial:    100 * time.Millisecond,
		Max:        time.Second,
		Multiplier: 2,
		Jitter:     0.25,
	}

	for i := 0; i < 200; i++ {
		d := b.Delay(0)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestBackoffNormalizeFillsDefaults(t *testing.T) {
	t.Parallel()

	b := Backoff{}.Normalize()
	def := DefaultBackoff()

	assert.Equal(t, def.Initial, b.Initial)
	assert.Equal(t, def.Max, b.Max)
	assert.Equal(t, def.Multiplier, b.Multiplier)
}

func TestBackoffSleepHonorsContext(t *testing.T) {
	t.Parallel()

	b := Backoff{Initial: time.Minute, Max: time.Minute, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ok := b.Sleep(ctx, 0)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryDoSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	r := RetryConfig{
		MaxAttempts: 3,
		Backoff:     Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
	}

	calls := 0
	err := r.Do(context.Background(), "flaky", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	t.Parallel()

	r := RetryConfig{
		MaxAttempts: 2,
		Backoff:     Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
	}

	calls := 0
	err := r.Do(context.Background(), "doomed", func(ctx context.Context) error {
		calls++
		return errors.New("still broken")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "doomed failed after 2 attempts")
}

func TestRetryDoStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	r := RetryConfig{
		MaxAttempts: 5,
		Backoff:     Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
	}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := r.Do(ctx, "cancelled", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
