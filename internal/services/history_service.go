package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/config"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/providers"
	"github.com/tropicaldog17/vngold/internal/seeds"
	"github.com/tropicaldog17/vngold/internal/store"
)

// HistoryServiceImpl resolves period changes through three tiers: the live
// series fetched once per call, the local store, and for the configured
// long horizons the seed table itself.
type HistoryServiceImpl struct {
	store   store.HistoryStore
	sources HistorySources
	config  config.HistoryConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewHistoryService(st store.HistoryStore, sources HistorySources, cfg config.HistoryConfig, logger *zap.Logger, now func() time.Time) HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &HistoryServiceImpl{store: st, sources: sources, config: cfg, logger: logger, now: now}
}

// Aggregate seeds the store, pulls the live series, and derives the period
// changes and the chart series of asset.
func (s *HistoryServiceImpl) Aggregate(ctx context.Context, asset string, current *decimal.Decimal) AssetHistory {
	s.Seed(ctx, asset)
	live := s.FetchLive(ctx, asset)

	var out AssetHistory
	if current != nil {
		out.History = s.Changes(ctx, asset, *current, live)
	}
	out.Timeseries = s.Timeseries(ctx, asset, live)
	return out
}

// Seed writes the seed anchors of asset into the store. Protective assets
// only fill days that have no entry yet; the rest are written in one batch.
func (s *HistoryServiceImpl) Seed(ctx context.Context, asset string) {
	anchors := seeds.For(asset)
	if len(anchors) == 0 {
		return
	}
	if !seeds.Protective(asset) {
		batch := make(map[string]decimal.Decimal, len(anchors))
		for _, anchor := range anchors {
			batch[anchor.Date] = anchor.Value
		}
		if err := s.store.RecordMany(ctx, asset, batch); err != nil {
			s.logger.Warn("Failed to seed history", zap.String("asset", asset), zap.Error(err))
			return
		}
		s.logger.Debug("Seeded history", zap.String("asset", asset), zap.Int("written", len(batch)))
		return
	}

	written := 0
	for _, anchor := range anchors {
		day, err := models.ParseDay(anchor.Date)
		if err != nil {
			continue
		}
		ok, err := s.store.RecordIfAbsent(ctx, asset, anchor.Value, day)
		if err != nil {
			s.logger.Warn("Failed to seed history", zap.String("asset", asset), zap.String("day", anchor.Date), zap.Error(err))
			continue
		}
		if ok {
			written++
		}
	}
	s.logger.Debug("Seeded history", zap.String("asset", asset), zap.Int("written", written))
}

// FetchLive runs the live history sources of asset and backfills whatever
// they return into the store. A nil series means no live tier.
func (s *HistoryServiceImpl) FetchLive(ctx context.Context, asset string) models.DaySeries {
	strategies := s.sources.History(asset, s.config.LongestPeriodDays())
	if len(strategies) == 0 {
		return nil
	}
	series, source, err := providers.FirstSuccess(ctx, s.logger, asset+" history", strategies)
	if err != nil {
		s.logger.Warn("Live history unavailable", zap.String("asset", asset), zap.Error(err))
		return nil
	}
	if err := s.store.RecordMany(ctx, asset, series); err != nil {
		s.logger.Warn("Failed to backfill history", zap.String("asset", asset), zap.Error(err))
	}
	s.logger.Debug("Fetched live history", zap.String("asset", asset), zap.String("source", source), zap.Int("points", len(series)))
	return series
}

// Changes returns one change per configured period in configured order.
func (s *HistoryServiceImpl) Changes(ctx context.Context, asset string, current decimal.Decimal, live models.DaySeries) *models.AssetHistoricalData {
	today := models.DateOnly(s.now())
	window := s.sources.LiveWindowDays(asset)

	changes := make([]models.HistoricalChange, 0, len(s.config.Periods))
	for _, period := range s.config.Periods {
		target := today.AddDate(0, 0, -period.Days)
		old, tier := s.resolve(ctx, asset, period, target, live, window)
		if old == nil {
			s.logger.Debug("No historical value", zap.String("asset", asset), zap.String("period", period.Label))
		} else {
			s.logger.Debug("Resolved historical value", zap.String("asset", asset), zap.String("period", period.Label), zap.String("tier", tier))
		}
		changes = append(changes, models.NewHistoricalChange(period.Label, old, current))
	}
	return &models.AssetHistoricalData{AssetName: asset, Changes: changes}
}

func (s *HistoryServiceImpl) resolve(ctx context.Context, asset string, period models.Period, target time.Time, live models.DaySeries, window int) (*decimal.Decimal, string) {
	if live != nil && (window <= 0 || period.Days <= window) {
		if v, ok := nearestLive(live, target, s.config.LiveToleranceDays); ok {
			return &v, "live"
		}
	}

	v, ok, err := s.store.ValueAt(ctx, asset, target)
	if err != nil {
		s.logger.Warn("History store lookup failed", zap.String("asset", asset), zap.Error(err))
	} else if ok {
		return &v, "store"
	}

	if s.config.UsesSeedFallback(period.Label) {
		if v, ok := seeds.Nearest(seeds.For(asset), target, s.config.SeedToleranceDays); ok {
			return &v, "seed"
		}
	}
	return nil, ""
}

// nearestLive probes the exact day, then +1, -1, +2, -2 and so on up to
// tolerance.
func nearestLive(live models.DaySeries, target time.Time, tolerance int) (decimal.Decimal, bool) {
	if v, ok := live[models.DayKey(target)]; ok {
		return v, true
	}
	for d := 1; d <= tolerance; d++ {
		if v, ok := live[models.DayKey(target.AddDate(0, 0, d))]; ok {
			return v, true
		}
		if v, ok := live[models.DayKey(target.AddDate(0, 0, -d))]; ok {
			return v, true
		}
	}
	return decimal.Zero, false
}

// Timeseries merges seeds, stored entries and the live series; later
// layers win on the same day.
func (s *HistoryServiceImpl) Timeseries(ctx context.Context, asset string, live models.DaySeries) models.TimeSeries {
	points := seeds.Points(seeds.For(asset))

	entries, err := s.store.Entries(ctx, asset)
	if err != nil {
		s.logger.Warn("Failed to list history entries", zap.String("asset", asset), zap.Error(err))
	}
	for _, e := range entries {
		points[e.Day] = e.Value.InexactFloat64()
	}
	for day, v := range live {
		points[day] = v.InexactFloat64()
	}
	return models.TimeSeriesFromMap(points)
}

var _ HistoryService = (*HistoryServiceImpl)(nil)
