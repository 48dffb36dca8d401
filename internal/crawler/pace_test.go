package crawler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacerDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   time.Duration
		jitter float64
		min    time.Duration
		max    time.Duration
	}{
		{
			name: "zero base disables pacing",
			base: 0, jitter: 0.5,
			min: 0, max: 0,
		},
		{
			name: "no jitter returns the base exactly",
			base: 100 * time.Millisecond, jitter: 0,
			min: 100 * time.Millisecond, max: 100 * time.Millisecond,
		},
		{
			name: "jitter stays within base plus the spread",
			base: 100 * time.Millisecond, jitter: 0.5,
			min: 100 * time.Millisecond, max: 150 * time.Millisecond,
		},
		{
			name: "negative values are clamped",
			base: -time.Second, jitter: -1,
			min: 0, max: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewPacer(tt.base, tt.jitter)
			for range 50 {
				d := p.Delay()
				if d < tt.min || d > tt.max {
					t.Fatalf("Delay() = %v, want within [%v, %v]", d, tt.min, tt.max)
				}
			}
		})
	}
}

func TestPacerWaitCancelled(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Minute, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() on cancelled context = %v, want context.Canceled", err)
	}
}

func TestPacerWaitZeroDelayIgnoresContext(t *testing.T) {
	t.Parallel()

	p := NewPacer(0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); err != nil {
		t.Errorf("Wait() with zero delay = %v, want nil", err)
	}
}
