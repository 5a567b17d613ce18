package utils

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff computes exponential retry delays with an upper cap and random
// jitter. The zero value is not usable; call Normalize or start from
// DefaultBackoff.
type Backoff struct {
	// Initial is the base delay before the first retry.
	Initial time.Duration

	// Max caps the computed delay (before jitter).
	Max time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64

	// Jitter adds random noise as a fraction of the computed delay
	// (0.25 means ±25%). Zero disables jitter.
	Jitter float64
}

// DefaultBackoff returns the backoff policy used when nothing is configured.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    2 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.25,
	}
}

// Normalize fills zero or negative fields with defaults.
func (b Backoff) Normalize() Backoff {
	def := DefaultBackoff()
	if b.Initial <= 0 {
		b.Initial = def.Initial
	}
	if b.Max <= 0 {
		b.Max = def.Max
	}
	if b.Multiplier <= 0 {
		b.Multiplier = def.Multiplier
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	return b
}

// Delay returns the sleep duration for the given zero-based attempt.
// Without jitter the sequence is non-decreasing up to Max.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.Normalize()

	delay := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.Jitter > 0 {
		span := delay * b.Jitter
		delay += (rand.Float64()*2 - 1) * span
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Sleep blocks for the attempt's delay or until ctx is done.
// It returns false when the context ended first.
func (b Backoff) Sleep(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
