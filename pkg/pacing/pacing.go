// Package pacing spaces navigations out with randomized delays so traffic
// does not look machine-generated.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Window sleeps a uniformly random duration inside [Min, Max] on every Wait.
// Each worker owns its own Window; the jitter discipline is per session, not
// serialized across the pool.
type Window struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a delay window. Min and max are swapped if reversed; a zero or
// negative max disables the delay entirely.
func New(min, max time.Duration) *Window {
	if min > max {
		min, max = max, min
	}
	if min < 0 {
		min = 0
	}
	return &Window{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks for a random duration in the window, or until ctx is cancelled.
func (w *Window) Wait(ctx context.Context) error {
	if w.max <= 0 {
		return ctx.Err()
	}

	w.mu.Lock()
	d := w.min + time.Duration(w.rng.Int63n(int64(w.max-w.min)+1))
	w.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Span reports the configured window, mostly for logging.
func (w *Window) Span() (time.Duration, time.Duration) {
	return w.min, w.max
}
