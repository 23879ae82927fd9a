package database

import "time"

// LinkMapping is one row of short_urls: a short code bound to an original URL
// until ExpiresAt passes.
type LinkMapping struct {
	Id          int
	OriginalURL string
	ShortCode   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Live reports whether the mapping has not yet expired at the given instant.
func (m *LinkMapping) Live(now time.Time) bool {
	return !now.After(m.ExpiresAt)
}

// GenerationEvent is one row of url_generation_tracker, recording a single
// accepted short-code generation.
type GenerationEvent struct {
	Id         int
	OccurredAt time.Time
}
