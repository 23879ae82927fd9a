package shortener

import (
	"context"
	"fmt"
	"time"
)

// Limiter admits short-code generations while the number of recorded events in
// the sliding window stays under the ceiling. Allow has no side effect;
// recording an event is the caller's explicit second step after a generation
// actually succeeds.
type Limiter struct {
	events  EventStore
	window  time.Duration
	ceiling int
	now     func() time.Time
}

func NewLimiter(events EventStore, window time.Duration, ceiling int) *Limiter {
	return &Limiter{
		events:  events,
		window:  window,
		ceiling: ceiling,
		now:     time.Now,
	}
}

// Allow reports whether another generation is admitted right now. A failing
// count query is returned as an error, never treated as an empty window.
func (l *Limiter) Allow(ctx context.Context) (bool, error) {
	n, err := l.events.CountSince(ctx, l.now().Add(-l.window))
	if err != nil {
		return false, fmt.Errorf("counting generation events: %w", err)
	}
	return n < l.ceiling, nil
}

// Record stores one generation event at the current instant.
func (l *Limiter) Record(ctx context.Context) error {
	return l.events.Record(ctx, l.now())
}
