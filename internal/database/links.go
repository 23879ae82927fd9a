package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// FindByOriginalURL returns the mapping for an original URL, expired or not.
// Returns ErrNotFound when no row exists.
func (s *Service) FindByOriginalURL(ctx context.Context, originalURL string) (*LinkMapping, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, original_url, short_url, created_at, ttl_expiry
		 FROM short_urls WHERE original_url = $1`, originalURL)
	return scanMapping(row)
}

// FindByShortCode returns the mapping for a short code, expired or not.
// Returns ErrNotFound when no row exists.
func (s *Service) FindByShortCode(ctx context.Context, shortCode string) (*LinkMapping, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, original_url, short_url, created_at, ttl_expiry
		 FROM short_urls WHERE short_url = $1`, shortCode)
	return scanMapping(row)
}

// Insert stores a new mapping. Returns ErrCodeTaken when the short code
// collides with an existing row.
func (s *Service) Insert(ctx context.Context, m *LinkMapping) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO short_urls (original_url, short_url, created_at, ttl_expiry)
		 VALUES ($1, $2, $3, $4)`,
		m.OriginalURL, m.ShortCode, m.CreatedAt, m.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrCodeTaken
		}
		return fmt.Errorf("inserting short url: %w", err)
	}
	return nil
}

// DeleteByOriginalURL removes every mapping for the original URL.
func (s *Service) DeleteByOriginalURL(ctx context.Context, originalURL string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM short_urls WHERE original_url = $1`, originalURL); err != nil {
		return fmt.Errorf("deleting short url by original url: %w", err)
	}
	return nil
}

// DeleteByShortCode removes the mapping for the short code.
func (s *Service) DeleteByShortCode(ctx context.Context, shortCode string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM short_urls WHERE short_url = $1`, shortCode); err != nil {
		return fmt.Errorf("deleting short url by code: %w", err)
	}
	return nil
}

// DeleteExpired removes every mapping whose expiry is in the past and returns
// how many rows were deleted.
func (s *Service) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM short_urls WHERE ttl_expiry < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired short urls: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMapping(row pgx.Row) (*LinkMapping, error) {
	var m LinkMapping
	err := row.Scan(&m.Id, &m.OriginalURL, &m.ShortCode, &m.CreatedAt, &m.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning short url row: %w", err)
	}
	return &m, nil
}
