package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tropicaldog17/vngold/internal/config"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/seeds"
	"github.com/tropicaldog17/vngold/internal/store"
)

func newHistoryService(t *testing.T, st store.HistoryStore, sources HistorySources) *HistoryServiceImpl {
	t.Helper()
	if st == nil {
		st = store.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	}
	svc := NewHistoryService(st, sources, config.NewDefaultConfig().History, nil, clock)
	return svc.(*HistoryServiceImpl)
}

func changeFor(t *testing.T, h *models.AssetHistoricalData, period string) models.HistoricalChange {
	t.Helper()
	for _, c := range h.Changes {
		if c.Period == period {
			return c
		}
	}
	t.Fatalf("period %s not found", period)
	return models.HistoricalChange{}
}

func TestHistoryService_PeriodsInConfiguredOrder(t *testing.T) {
	svc := newHistoryService(t, nil, &fakeHistorySources{down: true})

	h := svc.Aggregate(context.Background(), models.AssetGold, dp("180000000"))
	require.NotNil(t, h.History)

	var labels []string
	for _, c := range h.History.Changes {
		labels = append(labels, c.Period)
		assert.True(t, d("180000000").Equal(c.NewValue))
	}
	assert.Equal(t, []string{"1D", "1W", "1M", "1Y", "3Y"}, labels)
}

func TestHistoryService_Gold3YFallsBackToSeed(t *testing.T) {
	// all live sources down and the store holds only the seeds; the 3Y
	// target 2023-02-17 is five days from the nearest anchor
	svc := newHistoryService(t, nil, &fakeHistorySources{down: true})

	h := svc.Aggregate(context.Background(), models.AssetGold, dp("180000000"))
	require.NotNil(t, h.History)

	c := changeFor(t, h.History, "3Y")
	require.NotNil(t, c.OldValue)
	assert.True(t, d("66800000").Equal(*c.OldValue), "got %s", c.OldValue)
	require.NotNil(t, c.ChangePercent)
	assert.True(t, d("169.46").Equal(*c.ChangePercent), "got %s", c.ChangePercent)

	for _, period := range []string{"1D", "1W", "1M"} {
		c := changeFor(t, h.History, period)
		assert.Nil(t, c.OldValue, period)
		assert.Nil(t, c.ChangePercent, period)
	}
}

func TestHistoryService_Vn30ShortPeriodsNeverUseSeeds(t *testing.T) {
	svc := newHistoryService(t, blindStore{}, &fakeHistorySources{down: true})

	h := svc.Aggregate(context.Background(), models.AssetVn30, dp("2000"))
	require.NotNil(t, h.History)

	c := changeFor(t, h.History, "3Y")
	require.NotNil(t, c.OldValue)
	assert.True(t, d("1087.36").Equal(*c.OldValue))

	// a seed anchor sits at 2026-02-10, inside the 1W tolerance; it must
	// still not answer short periods
	for _, period := range []string{"1D", "1W", "1M"} {
		c := changeFor(t, h.History, period)
		assert.Nil(t, c.OldValue, period)
		assert.Nil(t, c.ChangePercent, period)
	}
}

func TestHistoryService_LiveProbesLaterDayFirst(t *testing.T) {
	sources := &fakeHistorySources{series: map[string]models.DaySeries{
		models.AssetUsdVnd: {
			"2026-02-08": d("25700"),
			"2026-02-10": d("25900"),
		},
	}}
	svc := newHistoryService(t, blindStore{}, sources)

	h := svc.Aggregate(context.Background(), models.AssetUsdVnd, dp("26000"))
	c := changeFor(t, h.History, "1W")
	require.NotNil(t, c.OldValue)
	assert.True(t, d("25900").Equal(*c.OldValue))
}

func TestHistoryService_LiveBeatsStore(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()
	require.NoError(t, st.Record(ctx, models.AssetUsdVnd, d("25000"), fixedNow.AddDate(0, 0, -1)))

	sources := &fakeHistorySources{series: map[string]models.DaySeries{
		models.AssetUsdVnd: {"2026-02-14": d("25950")},
	}}
	svc := newHistoryService(t, st, sources)

	h := svc.Aggregate(ctx, models.AssetUsdVnd, dp("26000"))
	c := changeFor(t, h.History, "1D")
	require.NotNil(t, c.OldValue)
	assert.True(t, d("25950").Equal(*c.OldValue))
}

func TestHistoryService_BitcoinLiveWindow(t *testing.T) {
	sources := &fakeHistorySources{
		series: map[string]models.DaySeries{
			models.AssetBitcoin: {
				"2026-02-15": d("2000000000"),
				"2023-02-17": d("999"),
			},
		},
		window: map[string]int{models.AssetBitcoin: 365},
	}
	svc := newHistoryService(t, blindStore{}, sources)

	h := svc.Aggregate(context.Background(), models.AssetBitcoin, dp("2100000000"))

	c := changeFor(t, h.History, "1D")
	require.NotNil(t, c.OldValue)
	assert.True(t, d("2000000000").Equal(*c.OldValue))

	// beyond the live window the seed table answers
	c = changeFor(t, h.History, "3Y")
	require.NotNil(t, c.OldValue)
	assert.True(t, d("570000000").Equal(*c.OldValue), "got %s", c.OldValue)
}

func TestHistoryService_LiveFetchedOncePerCallAndBackfilled(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	sources := &fakeHistorySources{series: map[string]models.DaySeries{
		models.AssetUsdVnd: {"2026-02-14": d("25900")},
	}}
	svc := newHistoryService(t, st, sources)
	ctx := context.Background()

	svc.Aggregate(ctx, models.AssetUsdVnd, dp("26000"))
	assert.Equal(t, int32(1), sources.fetches.Load())

	v, ok, err := st.ValueAt(ctx, models.AssetUsdVnd, fixedNow.AddDate(0, 0, -2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d("25900").Equal(v))
}

func TestHistoryService_NoCurrentValueStillBuildsTimeseries(t *testing.T) {
	svc := newHistoryService(t, nil, &fakeHistorySources{down: true})

	h := svc.Aggregate(context.Background(), models.AssetLand, nil)
	assert.Nil(t, h.History)
	assert.Len(t, h.Timeseries, len(seeds.Land))
}

func TestHistoryService_TimeseriesLayering(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	svc := newHistoryService(t, st, &fakeHistorySources{})
	ctx := context.Background()

	svc.Seed(ctx, models.AssetGold)
	day, err := models.ParseDay("2023-06-01")
	require.NoError(t, err)
	require.NoError(t, st.Record(ctx, models.AssetGold, d("70000000"), day))

	live := models.DaySeries{
		"2023-02-10": d("71000000"),
		"2026-02-15": d("180000000"),
	}
	ts := svc.Timeseries(ctx, models.AssetGold, live)

	values := map[string]float64{}
	for i, p := range ts {
		if i > 0 {
			assert.Less(t, ts[i-1].Date, p.Date)
		}
		values[p.Date] = p.Value
	}
	assert.Equal(t, 70000000.0, values["2023-06-01"])
	assert.Equal(t, 71000000.0, values["2023-02-10"])
	assert.Equal(t, 180000000.0, values["2026-02-15"])
	assert.Equal(t, 66800000.0, values["2023-02-12"])
}

func TestHistoryService_ProtectiveSeedingKeepsObservations(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()
	day, err := models.ParseDay("2026-02-10")
	require.NoError(t, err)
	require.NoError(t, st.Record(ctx, models.AssetVn30, d("1900"), day))

	svc := newHistoryService(t, st, &fakeHistorySources{})
	svc.Seed(ctx, models.AssetVn30)

	v, ok, err := st.ValueAt(ctx, models.AssetVn30, day)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d("1900").Equal(v))
}

func TestHistoryService_AlwaysSeedingOverwritesInOneBatch(t *testing.T) {
	st := store.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()
	anchor := seeds.Gold[0]
	day, err := models.ParseDay(anchor.Date)
	require.NoError(t, err)
	require.NoError(t, st.Record(ctx, models.AssetGold, d("1"), day))

	svc := newHistoryService(t, st, &fakeHistorySources{})
	svc.Seed(ctx, models.AssetGold)

	v, ok, err := st.ValueAt(ctx, models.AssetGold, day)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, anchor.Value.Equal(v), "got %s", v)

	entries, err := st.Entries(ctx, models.AssetGold)
	require.NoError(t, err)
	assert.Len(t, entries, len(seeds.Points(seeds.Gold)))
}

func TestHistoryService_SeedModePerAsset(t *testing.T) {
	m := &mockHistoryStore{}
	m.On("RecordIfAbsent", models.AssetVn30, mock.Anything, mock.Anything).Return(false, nil)
	m.On("RecordMany", models.AssetGold, mock.MatchedBy(func(values map[string]decimal.Decimal) bool {
		return len(values) == len(seeds.Points(seeds.Gold))
	})).Return(nil)

	svc := newHistoryService(t, m, &fakeHistorySources{})
	ctx := context.Background()
	svc.Seed(ctx, models.AssetVn30)
	svc.Seed(ctx, models.AssetGold)

	m.AssertNumberOfCalls(t, "RecordIfAbsent", len(seeds.Vn30))
	m.AssertNumberOfCalls(t, "RecordMany", 1)
	m.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "RecordMany", models.AssetVn30, mock.Anything)
}
