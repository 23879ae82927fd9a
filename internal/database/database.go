package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Errors returned by the store methods. Callers match with errors.Is.
var (
	ErrNotFound  = errors.New("no matching row")
	ErrCodeTaken = errors.New("short code already exists")
)

// Service wraps the Postgres connection pool. Every operation acquires a
// connection from the pool for its statements only; nothing is held across
// requests.
type Service struct {
	pool *pgxpool.Pool
}

// New connects using DATABASE_URL (or the discrete DB_* variables), loading
// .env first if present.
func New(ctx context.Context) (*Service, error) {
	_ = godotenv.Load()
	return Open(ctx, connStringFromEnv())
}

// Open connects to the database at connString and verifies the connection.
func Open(ctx context.Context, connString string) (*Service, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Service{pool: pool}, nil
}

func connStringFromEnv() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_DATABASE"),
	)
}

// CreateTables creates the two tables this service owns if they do not exist.
func (s *Service) CreateTables(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS short_urls (
		id SERIAL PRIMARY KEY,
		original_url VARCHAR(500) NOT NULL,
		short_url VARCHAR(10) UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ttl_expiry TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating short_urls table: %w", err)
	}

	_, err = s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS url_generation_tracker (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("creating url_generation_tracker table: %w", err)
	}
	return nil
}

func (s *Service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return map[string]string{
			"status": "down",
			"error":  err.Error(),
		}
	}
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
	}
}

func (s *Service) Close() {
	s.pool.Close()
}
