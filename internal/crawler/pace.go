package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer inserts a randomized delay between successive fetches to bound the
// request rate against the target host. It is invoked once per processed
// URL, success or failure.
type Pacer struct {
	base   time.Duration
	jitter float64
}

// NewPacer creates a pacer sleeping base plus a uniform random duration in
// [0, base*jitter) per wait. A base of 0 disables pacing entirely.
func NewPacer(base time.Duration, jitter float64) *Pacer {
	if base < 0 {
		base = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Pacer{base: base, jitter: jitter}
}

// Delay computes the next sleep duration.
func (p *Pacer) Delay() time.Duration {
	d := p.base
	if p.base > 0 && p.jitter > 0 {
		if spread := time.Duration(float64(p.base) * p.jitter); spread > 0 {
			d += rand.N(spread)
		}
	}
	return d
}

// Wait suspends the caller for the next delay, returning early with the
// context's error if the run is cancelled mid-sleep.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
