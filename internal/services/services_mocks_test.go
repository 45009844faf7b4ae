package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/providers"
)

var fixedNow = time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func fp(f float64) *float64 { return &f }

func unavailable(source string) error {
	return &apperrors.ErrSourceUnavailable{Source: source, Err: errors.New("connection refused")}
}

// ---- Fakes for history sources and stores used in unit tests ----

type fakeHistorySources struct {
	series  map[string]models.DaySeries
	down    bool
	window  map[string]int
	fetches atomic.Int32
}

func (f *fakeHistorySources) History(asset string, longestDays int) []providers.Strategy[models.DaySeries] {
	if f.down {
		return []providers.Strategy[models.DaySeries]{
			providers.NewStrategy("offline", func(context.Context) (models.DaySeries, error) {
				f.fetches.Add(1)
				return nil, unavailable("offline")
			}),
		}
	}
	series, ok := f.series[asset]
	if !ok {
		return nil
	}
	return []providers.Strategy[models.DaySeries]{
		providers.NewStrategy("fake", func(context.Context) (models.DaySeries, error) {
			f.fetches.Add(1)
			return series, nil
		}),
	}
}

func (f *fakeHistorySources) LiveWindowDays(asset string) int {
	return f.window[asset]
}

// blindStore accepts writes and never finds anything.
type blindStore struct{}

func (blindStore) Record(context.Context, string, decimal.Decimal, time.Time) error { return nil }
func (blindStore) RecordIfAbsent(context.Context, string, decimal.Decimal, time.Time) (bool, error) {
	return true, nil
}
func (blindStore) RecordMany(context.Context, string, map[string]decimal.Decimal) error { return nil }
func (blindStore) ValueAt(context.Context, string, time.Time) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}
func (blindStore) Entries(context.Context, string) ([]models.HistoryEntry, error) { return nil, nil }

type mockHistoryStore struct {
	mock.Mock
}

func (m *mockHistoryStore) Record(ctx context.Context, asset string, value decimal.Decimal, at time.Time) error {
	return m.Called(asset, value, at).Error(0)
}

func (m *mockHistoryStore) RecordIfAbsent(ctx context.Context, asset string, value decimal.Decimal, at time.Time) (bool, error) {
	args := m.Called(asset, value, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockHistoryStore) RecordMany(ctx context.Context, asset string, values map[string]decimal.Decimal) error {
	return m.Called(asset, values).Error(0)
}

func (m *mockHistoryStore) ValueAt(ctx context.Context, asset string, target time.Time) (decimal.Decimal, bool, error) {
	args := m.Called(asset, target)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

func (m *mockHistoryStore) Entries(ctx context.Context, asset string) ([]models.HistoryEntry, error) {
	args := m.Called(asset)
	entries, _ := args.Get(0).([]models.HistoryEntry)
	return entries, args.Error(1)
}

// ---- Fakes for current-value chains ----

type fakeCurrentSources struct {
	gold    providers.Chain[models.GoldPrice]
	usd     providers.Chain[models.UsdVndRate]
	bitcoin providers.Chain[models.BitcoinPrice]
	vn30    providers.Chain[models.Vn30Index]
	land    providers.Chain[models.LandPrice]
}

func (f *fakeCurrentSources) Gold() providers.Chain[models.GoldPrice]       { return f.gold }
func (f *fakeCurrentSources) UsdVnd() providers.Chain[models.UsdVndRate]    { return f.usd }
func (f *fakeCurrentSources) Bitcoin() providers.Chain[models.BitcoinPrice] { return f.bitcoin }
func (f *fakeCurrentSources) Vn30() providers.Chain[models.Vn30Index]       { return f.vn30 }
func (f *fakeCurrentSources) Land() providers.Chain[models.LandPrice]       { return f.land }

func liveOnly[T any](name string, fn func(context.Context) (T, error)) providers.Chain[T] {
	return providers.Chain[T]{Name: name, Live: []providers.Strategy[T]{providers.NewStrategy("live", fn)}}
}

// ---- Fakes for services ----

type fakeMarketService struct {
	data     *models.DashboardData
	recorded int
}

func (f *fakeMarketService) FetchCurrent(context.Context) *models.DashboardData {
	if f.data == nil {
		return &models.DashboardData{}
	}
	return f.data
}

func (f *fakeMarketService) RecordSnapshots(_ context.Context, data *models.DashboardData) int {
	f.recorded += len(data.Snapshots())
	return len(data.Snapshots())
}

type fakeHistoryService struct {
	histories map[string]AssetHistory
}

func (f *fakeHistoryService) Aggregate(_ context.Context, asset string, current *decimal.Decimal) AssetHistory {
	h := f.histories[asset]
	if current == nil {
		h.History = nil
	}
	return h
}
