package shortener

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically deletes stale generation events and expired link
// mappings. A failed sweep is logged and swallowed so the schedule never
// stops; Run returns only when its context is cancelled.
type Sweeper struct {
	links     LinkStore
	events    EventStore
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewSweeper(links LinkStore, events EventStore, cfg Config) *Sweeper {
	return &Sweeper{
		links:     links,
		events:    events,
		interval:  cfg.SweepInterval,
		retention: cfg.Retention,
		now:       time.Now,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context) {
	log.Printf("[sweeper:Run] sweeping every %s", sw.interval)
	t := time.NewTicker(sw.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			sw.Sweep(ctx)
		case <-ctx.Done():
			log.Println("[sweeper:Run] stopping")
			return
		}
	}
}

// Sweep runs both cleanup passes once. Each pass fails independently.
func (sw *Sweeper) Sweep(ctx context.Context) {
	now := sw.now()

	if n, err := sw.events.DeleteBefore(ctx, now.Add(-sw.retention)); err != nil {
		log.Printf("[sweeper:Sweep] deleting stale generation events: %v", err)
	} else if n > 0 {
		log.Printf("[sweeper:Sweep] deleted %d stale generation events", n)
	}

	if n, err := sw.links.DeleteExpired(ctx, now); err != nil {
		log.Printf("[sweeper:Sweep] deleting expired short urls: %v", err)
	} else if n > 0 {
		log.Printf("[sweeper:Sweep] deleted %d expired short urls", n)
	}
}
