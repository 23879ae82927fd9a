package shortener

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"short-links/internal/database"
)

// Allocator produces the short code for an original URL: a still-live mapping
// is reused unchanged, an expired one is reclaimed first, otherwise a fresh
// code is minted and inserted.
type Allocator struct {
	links   LinkStore
	ttl     time.Duration
	retries int
	now     func() time.Time
	newCode func() string
}

func NewAllocator(links LinkStore, cfg Config) *Allocator {
	length := cfg.CodeLength
	return &Allocator{
		links:   links,
		ttl:     cfg.TTL,
		retries: cfg.InsertRetries,
		now:     time.Now,
		newCode: func() string { return shortuuid.New()[:length] },
	}
}

// Allocate returns the short code for originalURL and whether a new mapping
// was minted. Reusing a live mapping is idempotent: no new row, and the caller
// must not charge a generation event for it.
func (a *Allocator) Allocate(ctx context.Context, originalURL string) (string, bool, error) {
	existing, err := a.links.FindByOriginalURL(ctx, originalURL)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", false, fmt.Errorf("looking up original url: %w", err)
	}
	if existing != nil {
		if existing.Live(a.now()) {
			return existing.ShortCode, false, nil
		}
		// Expired rows never resurrect; reclaim the URL slot and mint fresh.
		if err := a.links.DeleteByOriginalURL(ctx, originalURL); err != nil {
			return "", false, fmt.Errorf("reclaiming expired mapping: %w", err)
		}
	}

	now := a.now()
	for attempt := 1; attempt <= a.retries; attempt++ {
		m := &database.LinkMapping{
			OriginalURL: originalURL,
			ShortCode:   a.newCode(),
			CreatedAt:   now,
			ExpiresAt:   now.Add(a.ttl),
		}
		err := a.links.Insert(ctx, m)
		if err == nil {
			return m.ShortCode, true, nil
		}
		if !errors.Is(err, database.ErrCodeTaken) {
			return "", false, fmt.Errorf("inserting mapping: %w", err)
		}
		log.Printf("[allocator:Allocate] short code %q taken, regenerating (%d/%d)", m.ShortCode, attempt, a.retries)
	}
	return "", false, ErrGenerationFailed
}
