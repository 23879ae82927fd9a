package shortener

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"short-links/internal/database"
)

// LinkStore is the subset of the link table operations the core needs.
type LinkStore interface {
	FindByOriginalURL(ctx context.Context, originalURL string) (*database.LinkMapping, error)
	FindByShortCode(ctx context.Context, shortCode string) (*database.LinkMapping, error)
	Insert(ctx context.Context, m *database.LinkMapping) error
	DeleteByOriginalURL(ctx context.Context, originalURL string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventStore tracks short-code generation events for rate limiting.
type EventStore interface {
	CountSince(ctx context.Context, t time.Time) (int, error)
	Record(ctx context.Context, occurredAt time.Time) error
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

// Config carries the lifecycle constants.
type Config struct {
	TTL           time.Duration // how long a mapping stays live
	RateWindow    time.Duration // sliding window for the generation limit
	RateCeiling   int           // max generations per window
	Retention     time.Duration // how long generation events are kept
	SweepInterval time.Duration // how often the sweeper runs
	CodeLength    int
	InsertRetries int // regeneration attempts on a code collision
}

func DefaultConfig() Config {
	return Config{
		TTL:           10 * time.Minute,
		RateWindow:    time.Minute,
		RateCeiling:   10,
		Retention:     10 * time.Minute,
		SweepInterval: 10 * time.Minute,
		CodeLength:    6,
		InsertRetries: 3,
	}
}

// Shortener coordinates the rate limiter and the allocator for the two public
// operations. It keeps no state of its own; every call re-reads the store.
type Shortener struct {
	links   LinkStore
	limiter *Limiter
	alloc   *Allocator
	now     func() time.Time
}

func New(links LinkStore, events EventStore, cfg Config) *Shortener {
	return &Shortener{
		links:   links,
		limiter: NewLimiter(events, cfg.RateWindow, cfg.RateCeiling),
		alloc:   NewAllocator(links, cfg),
		now:     time.Now,
	}
}

// Shorten returns the short code for originalURL, minting a new mapping if no
// live one exists. The generation event is recorded only after the allocation
// succeeded, so denied or failed attempts never count toward the limit.
func (s *Shortener) Shorten(ctx context.Context, originalURL string) (string, error) {
	ok, err := s.limiter.Allow(ctx)
	if err != nil {
		// Fail closed: an unanswerable count query denies the request.
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return "", ErrRateLimited
	}

	code, minted, err := s.alloc.Allocate(ctx, originalURL)
	if err != nil {
		if errors.Is(err, ErrGenerationFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if minted {
		if err := s.limiter.Record(ctx); err != nil {
			// The mapping exists; losing one tracker row only loosens the limit.
			log.Printf("[shortener:Shorten] recording generation event: %v", err)
		}
	}
	return code, nil
}

// Resolve returns the original URL behind shortCode. The expiry check here is
// a safety net independent of the sweeper, so a stale row never resolves.
func (s *Shortener) Resolve(ctx context.Context, shortCode string) (string, error) {
	m, err := s.links.FindByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !m.Live(s.now()) {
		return "", ErrExpired
	}
	return m.OriginalURL, nil
}
