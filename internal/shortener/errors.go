package shortener

import "errors"

var (
	// ErrNotFound means the short code was never issued (or already deleted).
	ErrNotFound = errors.New("short url not found")
	// ErrExpired means the short code existed but its TTL has passed.
	ErrExpired = errors.New("short url expired")
	// ErrRateLimited means the generation ceiling for the current window is hit.
	ErrRateLimited = errors.New("generation limit reached")
	// ErrGenerationFailed means no unique short code could be inserted.
	ErrGenerationFailed = errors.New("could not generate short url")
	// ErrStoreUnavailable wraps store failures that are not a domain outcome.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsExpired(err error) bool { return errors.Is(err, ErrExpired) }

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
