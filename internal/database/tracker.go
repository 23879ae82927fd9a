package database

import (
	"context"
	"fmt"
	"time"
)

// CountSince returns how many generation events occurred strictly after t.
func (s *Service) CountSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM url_generation_tracker WHERE created_at > $1`, t).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting generation events: %w", err)
	}
	return n, nil
}

// Record stores a single generation event.
func (s *Service) Record(ctx context.Context, occurredAt time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO url_generation_tracker (created_at) VALUES ($1)`, occurredAt); err != nil {
		return fmt.Errorf("recording generation event: %w", err)
	}
	return nil
}

// DeleteBefore removes generation events older than t and returns how many
// rows were deleted.
func (s *Service) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM url_generation_tracker WHERE created_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("deleting stale generation events: %w", err)
	}
	return tag.RowsAffected(), nil
}
