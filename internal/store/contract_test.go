package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// runContract exercises behaviour every HistoryStore backend must share.
func runContract(t *testing.T, newStore func(t *testing.T) HistoryStore) {
	ctx := context.Background()

	t.Run("record then read back", func(t *testing.T) {
		s := newStore(t)
		at := time.Date(2026, 2, 16, 12, 0, 0, 0, time.Local)
		require.NoError(t, s.Record(ctx, "gold", d("175000000"), at))

		v, ok, err := s.ValueAt(ctx, "gold", at)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, v.Equal(d("175000000")))
	})

	t.Run("same day overwrites", func(t *testing.T) {
		s := newStore(t)
		morning := time.Date(2026, 2, 16, 8, 0, 0, 0, time.Local)
		evening := time.Date(2026, 2, 16, 20, 0, 0, 0, time.Local)
		require.NoError(t, s.Record(ctx, "gold", d("100"), morning))
		require.NoError(t, s.Record(ctx, "gold", d("200"), evening))

		entries, err := s.Entries(ctx, "gold")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Value.Equal(d("200")))
	})

	t.Run("multiple days sorted", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local)
		for _, off := range []int{2, 0, 1} {
			require.NoError(t, s.Record(ctx, "bitcoin", decimal.NewFromInt(int64(off+1)), base.AddDate(0, 0, off)))
		}
		entries, err := s.Entries(ctx, "bitcoin")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "2026-01-10", entries[0].Day)
		assert.Equal(t, "2026-01-12", entries[2].Day)
	})

	t.Run("closest within tolerance", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.Local)
		require.NoError(t, s.Record(ctx, "gold", d("100"), base))
		v, ok, err := s.ValueAt(ctx, "gold", base.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, v.Equal(d("100")))
	})

	t.Run("too far is absent", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.Local)
		require.NoError(t, s.Record(ctx, "gold", d("100"), base))
		_, ok, err := s.ValueAt(ctx, "gold", base.AddDate(0, 0, 4))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("calendar day tolerance ignores time of day", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Record(ctx, "gold", d("66800000"), time.Date(2023, 2, 10, 0, 0, 0, 0, time.Local)))
		v, ok, err := s.ValueAt(ctx, "gold", time.Date(2023, 2, 13, 19, 33, 0, 0, time.Local))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, v.Equal(d("66800000")))
	})

	t.Run("empty asset", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.ValueAt(ctx, "vn30", time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("assets are independent", func(t *testing.T) {
		s := newStore(t)
		at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)
		require.NoError(t, s.Record(ctx, "gold", d("100"), at))
		require.NoError(t, s.Record(ctx, "bitcoin", d("999"), at))
		g, _, _ := s.ValueAt(ctx, "gold", at)
		b, _, _ := s.ValueAt(ctx, "bitcoin", at)
		assert.True(t, g.Equal(d("100")))
		assert.True(t, b.Equal(d("999")))
	})

	t.Run("equidistant prefers earlier day", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Record(ctx, "usd_vnd", d("25000"), time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)))
		require.NoError(t, s.Record(ctx, "usd_vnd", d("26000"), time.Date(2026, 3, 5, 0, 0, 0, 0, time.Local)))
		v, ok, err := s.ValueAt(ctx, "usd_vnd", time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, v.Equal(d("25000")))
	})

	t.Run("rejects non-positive values", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.Record(ctx, "gold", decimal.Zero, time.Now()))
		assert.Error(t, s.Record(ctx, "gold", d("-1"), time.Now()))
	})

	t.Run("record if absent keeps existing day", func(t *testing.T) {
		s := newStore(t)
		at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
		require.NoError(t, s.Record(ctx, "vn30", d("1600"), at))

		wrote, err := s.RecordIfAbsent(ctx, "vn30", d("1540"), at)
		require.NoError(t, err)
		assert.False(t, wrote)

		wrote, err = s.RecordIfAbsent(ctx, "vn30", d("1570"), at.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.True(t, wrote)

		v, _, _ := s.ValueAt(ctx, "vn30", at)
		assert.True(t, v.Equal(d("1600")))
	})

	t.Run("record many upserts and skips junk", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.RecordMany(ctx, "usd_vnd", map[string]decimal.Decimal{
			"2026-02-01": d("25800"),
			"2026-02-02": d("25810"),
			"not-a-day":  d("1"),
			"2026-02-03": decimal.Zero,
		}))
		require.NoError(t, s.RecordMany(ctx, "usd_vnd", map[string]decimal.Decimal{"2026-02-02": d("25820")}))

		entries, err := s.Entries(ctx, "usd_vnd")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[1].Value.Equal(d("25820")))
	})

	t.Run("concurrent writers do not lose updates", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				asset := []string{"gold", "bitcoin"}[i%2]
				assert.NoError(t, s.Record(ctx, asset, decimal.NewFromInt(int64(i+1)), base.AddDate(0, 0, i)))
			}(i)
		}
		wg.Wait()

		total := 0
		for _, asset := range []string{"gold", "bitcoin"} {
			entries, err := s.Entries(ctx, asset)
			require.NoError(t, err)
			total += len(entries)
		}
		assert.Equal(t, 20, total, fmt.Sprintf("lost updates: %d of 20", total))
	})
}
