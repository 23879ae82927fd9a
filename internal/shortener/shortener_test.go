package shortener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"short-links/internal/database"
)

// fakeClock is a manual clock shared by the components under test.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeLinkStore struct {
	byCode map[string]*database.LinkMapping

	findErr   error
	insertErr error
	deleteErr error
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{byCode: make(map[string]*database.LinkMapping)}
}

func (f *fakeLinkStore) FindByOriginalURL(_ context.Context, originalURL string) (*database.LinkMapping, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, m := range f.byCode {
		if m.OriginalURL == originalURL {
			cp := *m
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeLinkStore) FindByShortCode(_ context.Context, shortCode string) (*database.LinkMapping, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if m, ok := f.byCode[shortCode]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeLinkStore) Insert(_ context.Context, m *database.LinkMapping) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.byCode[m.ShortCode]; ok {
		return database.ErrCodeTaken
	}
	cp := *m
	f.byCode[m.ShortCode] = &cp
	return nil
}

func (f *fakeLinkStore) DeleteByOriginalURL(_ context.Context, originalURL string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for code, m := range f.byCode {
		if m.OriginalURL == originalURL {
			delete(f.byCode, code)
		}
	}
	return nil
}

func (f *fakeLinkStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for code, m := range f.byCode {
		if m.ExpiresAt.Before(now) {
			delete(f.byCode, code)
			n++
		}
	}
	return n, nil
}

type fakeEventStore struct {
	events []time.Time

	countErr  error
	recordErr error
	deleteErr error
}

func (f *fakeEventStore) CountSince(_ context.Context, t time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, e := range f.events {
		if e.After(t) {
			n++
		}
	}
	return n, nil
}

func (f *fakeEventStore) Record(_ context.Context, occurredAt time.Time) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.events = append(f.events, occurredAt)
	return nil
}

func (f *fakeEventStore) DeleteBefore(_ context.Context, t time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	kept := f.events[:0]
	var n int64
	for _, e := range f.events {
		if e.Before(t) {
			n++
		} else {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return n, nil
}

func newTestCore(links LinkStore, events EventStore, cfg Config, clk *fakeClock) *Shortener {
	s := New(links, events, cfg)
	s.now = clk.Now
	s.limiter.now = clk.Now
	s.alloc.now = clk.Now
	return s
}

func TestShortenIsIdempotentWithinTTL(t *testing.T) {
	clk := newFakeClock()
	links := newFakeLinkStore()
	events := &fakeEventStore{}
	core := newTestCore(links, events, DefaultConfig(), clk)

	first, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	require.Len(t, first, 6)

	clk.Advance(5 * time.Minute)
	second, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, links.byCode, 1, "re-shorten must not create a second row")
	assert.Len(t, events.events, 1, "re-shorten must not record a new generation event")
}

func TestShortenMintsNewCodeAfterExpiry(t *testing.T) {
	clk := newFakeClock()
	links := newFakeLinkStore()
	core := newTestCore(links, &fakeEventStore{}, DefaultConfig(), clk)

	first, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	clk.Advance(10*time.Minute + time.Second)
	second, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, links.byCode, 1, "the expired row must be reclaimed, not kept alongside")

	_, err = core.Resolve(context.Background(), first)
	assert.ErrorIs(t, err, ErrNotFound, "the old code must not survive the reclaim")
}

func TestShortenDistinctURLsGetDistinctCodes(t *testing.T) {
	clk := newFakeClock()
	core := newTestCore(newFakeLinkStore(), &fakeEventStore{}, DefaultConfig(), clk)

	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.org/a",
		"https://example.org/b",
	}
	seen := make(map[string]bool)
	for _, u := range urls {
		code, err := core.Shorten(context.Background(), u)
		require.NoError(t, err)
		assert.False(t, seen[code], "code %q returned twice", code)
		seen[code] = true
	}
}

func TestResolveReturnsOriginalURLUntilExpiry(t *testing.T) {
	clk := newFakeClock()
	core := newTestCore(newFakeLinkStore(), &fakeEventStore{}, DefaultConfig(), clk)

	code, err := core.Shorten(context.Background(), "https://example.com/page?q=1")
	require.NoError(t, err)

	got, err := core.Resolve(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page?q=1", got)

	// Exactly at expiry the mapping is still live.
	clk.Advance(10 * time.Minute)
	got, err = core.Resolve(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page?q=1", got)

	clk.Advance(time.Second)
	_, err = core.Resolve(context.Background(), code)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestResolveUnknownCode(t *testing.T) {
	clk := newFakeClock()
	core := newTestCore(newFakeLinkStore(), &fakeEventStore{}, DefaultConfig(), clk)

	_, err := core.Resolve(context.Background(), "zzzzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRateLimitBoundary(t *testing.T) {
	clk := newFakeClock()
	events := &fakeEventStore{}
	core := newTestCore(newFakeLinkStore(), events, DefaultConfig(), clk)

	for i := 0; i < 10; i++ {
		_, err := core.Shorten(context.Background(), "https://example.com/"+string(rune('a'+i)))
		require.NoError(t, err, "generation %d should be admitted", i+1)
	}

	_, err := core.Shorten(context.Background(), "https://example.com/eleventh")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, events.events, 10, "a denied request must not record an event")

	clk.Advance(time.Minute + time.Second)
	_, err = core.Shorten(context.Background(), "https://example.com/eleventh")
	assert.NoError(t, err, "the limit must reopen once the window rolls past")
}

func TestShortenFailsClosedOnCountError(t *testing.T) {
	clk := newFakeClock()
	events := &fakeEventStore{countErr: errors.New("connection refused")}
	core := newTestCore(newFakeLinkStore(), events, DefaultConfig(), clk)

	_, err := core.Shorten(context.Background(), "https://example.com/a")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestShortenSurvivesRecordFailure(t *testing.T) {
	clk := newFakeClock()
	events := &fakeEventStore{recordErr: errors.New("connection reset")}
	core := newTestCore(newFakeLinkStore(), events, DefaultConfig(), clk)

	code, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	got, err := core.Resolve(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got)
}

func TestAllocatorRegeneratesOnCollision(t *testing.T) {
	clk := newFakeClock()
	links := newFakeLinkStore()
	core := newTestCore(links, &fakeEventStore{}, DefaultConfig(), clk)

	require.NoError(t, links.Insert(context.Background(), &database.LinkMapping{
		OriginalURL: "https://other.example.com",
		ShortCode:   "AAAAAA",
		CreatedAt:   clk.Now(),
		ExpiresAt:   clk.Now().Add(10 * time.Minute),
	}))

	codes := []string{"AAAAAA", "BBBBBB"}
	core.alloc.newCode = func() string {
		c := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return c
	}

	code, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code)
}

func TestAllocatorGivesUpAfterRetries(t *testing.T) {
	clk := newFakeClock()
	links := newFakeLinkStore()
	core := newTestCore(links, &fakeEventStore{}, DefaultConfig(), clk)

	require.NoError(t, links.Insert(context.Background(), &database.LinkMapping{
		OriginalURL: "https://other.example.com",
		ShortCode:   "AAAAAA",
		CreatedAt:   clk.Now(),
		ExpiresAt:   clk.Now().Add(10 * time.Minute),
	}))
	core.alloc.newCode = func() string { return "AAAAAA" }

	_, err := core.Shorten(context.Background(), "https://example.com/a")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestShortenResolveEndToEnd(t *testing.T) {
	clk := newFakeClock()
	core := newTestCore(newFakeLinkStore(), &fakeEventStore{}, DefaultConfig(), clk)

	code1, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)

	got, err := core.Resolve(context.Background(), code1)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/a", got)

	clk.Advance(10*time.Minute + time.Second)
	_, err = core.Resolve(context.Background(), code1)
	require.ErrorIs(t, err, ErrExpired)

	code2, err := core.Shorten(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	require.NotEqual(t, code1, code2)
}
