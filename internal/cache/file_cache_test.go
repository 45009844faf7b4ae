package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
)

type quote struct {
	Price  string `json:"price"`
	Source string `json:"source"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*FileCache, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	c := NewFileCache(t.TempDir(), ttl, nil)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestGetOrFetch_FreshHit(t *testing.T) {
	c, _ := newTestCache(t, 10*time.Minute)
	calls := 0
	fetch := func(context.Context) (quote, error) {
		calls++
		return quote{Price: "100", Source: "DOJI"}, nil
	}

	first, err := GetOrFetch(context.Background(), c, Key("GoldRepository", "fetch"), fetch)
	require.NoError(t, err)
	second, err := GetOrFetch(context.Background(), c, Key("GoldRepository", "fetch"), fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.FileExists(t, filepath.Join(c.dir, "GoldRepository_fetch.json"))
}

func TestGetOrFetch_ExpiredRefetches(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	price := "100"
	fetch := func(context.Context) (quote, error) { return quote{Price: price}, nil }

	_, err := GetOrFetch(context.Background(), c, "k", fetch)
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Minute)
	price = "200"
	got, err := GetOrFetch(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	assert.Equal(t, "200", got.Price)
}

func TestGetOrFetch_StaleOnSourceUnavailable(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	_, err := GetOrFetch(context.Background(), c, "k", func(context.Context) (quote, error) {
		return quote{Price: "100"}, nil
	})
	require.NoError(t, err)

	*clock = clock.Add(time.Hour)
	got, err := GetOrFetch(context.Background(), c, "k", func(context.Context) (quote, error) {
		return quote{}, &apperrors.ErrSourceUnavailable{Source: "DOJI", Err: errors.New("timeout")}
	})
	require.NoError(t, err)
	assert.Equal(t, "100", got.Price)
}

func TestGetOrFetch_OtherErrorsPropagate(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	_, err := GetOrFetch(context.Background(), c, "k", func(context.Context) (quote, error) {
		return quote{Price: "100"}, nil
	})
	require.NoError(t, err)

	*clock = clock.Add(time.Hour)
	_, err = GetOrFetch(context.Background(), c, "k", func(context.Context) (quote, error) {
		return quote{}, errors.New("bad parse")
	})
	assert.Error(t, err)
}

func TestGetOrFetch_NoCacheNoStale(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	_, err := GetOrFetch(context.Background(), c, "k", func(context.Context) (quote, error) {
		return quote{}, &apperrors.ErrSourceUnavailable{Source: "x", Err: errors.New("down")}
	})
	assert.True(t, apperrors.IsSourceUnavailable(err))
}

func TestGetOrFetch_CorruptEntryIgnored(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	require.NoError(t, os.MkdirAll(c.dir, 0o755))
	require.NoError(t, os.WriteFile(c.path("k"), []byte("{broken"), 0o644))

	got, err := GetOrFetch(context.Background(), c, "k", func(context.Context) (quote, error) {
		return quote{Price: "1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1", got.Price)
}

func TestGetOrFetch_RewriteReplacesEntryWhole(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	price := "100"
	fetch := func(context.Context) (quote, error) { return quote{Price: price}, nil }

	_, err := GetOrFetch(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	before, err := os.Stat(c.path("k"))
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Minute)
	price = "200"
	_, err = GetOrFetch(context.Background(), c, "k", fetch)
	require.NoError(t, err)
	after, err := os.Stat(c.path("k"))
	require.NoError(t, err)

	// renamed into place rather than truncated and rewritten
	assert.False(t, os.SameFile(before, after))

	names, err := os.ReadDir(c.dir)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "k.json", names[0].Name())

	raw, _, ok := c.read("k")
	require.True(t, ok)
	assert.Contains(t, string(raw), "200")
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	calls := 0
	fetch := func(context.Context) (quote, error) { calls++; return quote{}, nil }
	_, _ = GetOrFetch(context.Background(), c, "k", fetch)
	require.NoError(t, c.Invalidate("k"))
	require.NoError(t, c.Invalidate("k"))
	_, _ = GetOrFetch(context.Background(), c, "k", fetch)
	assert.Equal(t, 2, calls)
}
