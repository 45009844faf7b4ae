package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/config"
	"github.com/tropicaldog17/vngold/internal/db"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/providers"
	"github.com/tropicaldog17/vngold/internal/services"
	"github.com/tropicaldog17/vngold/internal/store"
)

func openPostgresStore(t *testing.T) store.HistoryStore {
	t.Helper()
	cfg := SetupPostgres(t)
	st, closer, err := store.Open(db.DriverPostgres, "", cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })
	return st
}

func day(s string) time.Time {
	t, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPostgresStore_RecordAndLookup(t *testing.T) {
	st := openPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, st.Record(ctx, models.AssetGold, decimal.RequireFromString("175000000"), time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, st.Record(ctx, models.AssetGold, decimal.RequireFromString("176000000"), time.Date(2023, 2, 10, 18, 30, 0, 0, time.UTC)))

	entries, err := st.Entries(ctx, models.AssetGold)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, decimal.RequireFromString("176000000").Equal(entries[0].Value))

	// three calendar days away, more than 72 hours
	v, ok, err := st.ValueAt(ctx, models.AssetGold, time.Date(2023, 2, 13, 19, 33, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("176000000").Equal(v))

	_, ok, err = st.ValueAt(ctx, models.AssetGold, day("2023-02-14"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_RecordIfAbsentAndMany(t *testing.T) {
	st := openPostgresStore(t)
	ctx := context.Background()

	wrote, err := st.RecordIfAbsent(ctx, models.AssetVn30, decimal.RequireFromString("1950"), day("2026-02-10"))
	require.NoError(t, err)
	assert.True(t, wrote)
	wrote, err = st.RecordIfAbsent(ctx, models.AssetVn30, decimal.RequireFromString("1"), day("2026-02-10"))
	require.NoError(t, err)
	assert.False(t, wrote)

	require.NoError(t, st.RecordMany(ctx, models.AssetVn30, map[string]decimal.Decimal{
		"2026-02-11": decimal.RequireFromString("1960.5"),
		"2026-02-12": decimal.RequireFromString("1970.25"),
		"bad-day":    decimal.RequireFromString("1"),
	}))

	entries, err := st.Entries(ctx, models.AssetVn30)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026-02-10", entries[0].Day)
	assert.True(t, decimal.RequireFromString("1950").Equal(entries[0].Value))
	assert.True(t, decimal.RequireFromString("1970.25").Equal(entries[2].Value))
}

func TestPostgresStore_ConcurrentWriters(t *testing.T) {
	st := openPostgresStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, st.Record(ctx, models.AssetBitcoin, decimal.NewFromInt(int64(i)), day("2025-01-01").AddDate(0, 0, i)))
		}(i)
	}
	wg.Wait()

	entries, err := st.Entries(ctx, models.AssetBitcoin)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

type offlineHistory struct{}

func (offlineHistory) History(string, int) []providers.Strategy[models.DaySeries] { return nil }
func (offlineHistory) LiveWindowDays(string) int                                  { return 0 }

func TestPostgresStore_HistoryAggregationFromSeeds(t *testing.T) {
	st := openPostgresStore(t)
	now := func() time.Time { return time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC) }
	svc := services.NewHistoryService(st, offlineHistory{}, config.NewDefaultConfig().History, zap.NewNop(), now)

	current := decimal.RequireFromString("180000000")
	h := svc.Aggregate(context.Background(), models.AssetGold, &current)
	require.NotNil(t, h.History)

	last := h.History.Changes[len(h.History.Changes)-1]
	assert.Equal(t, "3Y", last.Period)
	require.NotNil(t, last.OldValue)
	assert.True(t, decimal.RequireFromString("66800000").Equal(*last.OldValue))
	assert.NotEmpty(t, h.Timeseries)
}

func TestPostgresStore_SchemaAndExactValues(t *testing.T) {
	cfg := SetupPostgres(t)
	st, closer, err := store.Open(db.DriverPostgres, "", cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	ctx := context.Background()
	require.NoError(t, st.Record(ctx, models.AssetUsdVnd, decimal.RequireFromString("25855.125"), day("2025-02-14")))

	// read back through a plain database/sql connection
	raw, err := sql.Open("postgres", cfg.DSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	var version int
	require.NoError(t, raw.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)

	var value string
	require.NoError(t, raw.QueryRowContext(ctx,
		"SELECT value FROM history_entries WHERE asset = $1 AND day = $2",
		models.AssetUsdVnd, "2025-02-14").Scan(&value))
	assert.Equal(t, "25855.125", value)

	// migrations are idempotent
	database, err := db.Connect(cfg)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.Migrate(database, zap.NewNop()))
}
