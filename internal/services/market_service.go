package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/cache"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/providers"
	"github.com/tropicaldog17/vngold/internal/store"
)

// MarketServiceImpl fetches the current value of every asset. Live
// strategies go through the file cache so a stale scrape beats a
// hardcoded fallback.
type MarketServiceImpl struct {
	sources CurrentSources
	cache   *cache.FileCache
	store   store.HistoryStore
	logger  *zap.Logger
}

// NewMarketService builds the service. fileCache may be nil to disable
// caching.
func NewMarketService(sources CurrentSources, fileCache *cache.FileCache, st store.HistoryStore, logger *zap.Logger) MarketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketServiceImpl{sources: sources, cache: fileCache, store: st, logger: logger}
}

// FetchCurrent resolves all assets concurrently. Assets whose whole chain
// failed are left nil.
func (s *MarketServiceImpl) FetchCurrent(ctx context.Context) *models.DashboardData {
	data := &models.DashboardData{}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		data.Gold = resolveChain(ctx, s.logger, s.cache, s.sources.Gold())
	}()
	go func() {
		defer wg.Done()
		data.UsdVnd = resolveChain(ctx, s.logger, s.cache, s.sources.UsdVnd())
	}()
	go func() {
		defer wg.Done()
		data.Bitcoin = resolveChain(ctx, s.logger, s.cache, s.sources.Bitcoin())
	}()
	go func() {
		defer wg.Done()
		data.Vn30 = resolveChain(ctx, s.logger, s.cache, s.sources.Vn30())
	}()
	go func() {
		defer wg.Done()
		data.Land = resolveChain(ctx, s.logger, s.cache, s.sources.Land())
	}()
	wg.Wait()

	return data
}

// resolveChain runs the live side of chain through the cache, then the
// local fallbacks.
func resolveChain[T any](ctx context.Context, logger *zap.Logger, fileCache *cache.FileCache, chain providers.Chain[T]) *T {
	if len(chain.Live) > 0 {
		fetch := func(ctx context.Context) (T, error) {
			value, _, err := providers.FirstSuccess(ctx, logger, chain.Name, chain.Live)
			return value, err
		}

		var (
			value T
			err   error
		)
		if fileCache != nil {
			value, err = cache.GetOrFetch(ctx, fileCache, cache.Key(chain.Name, "current"), fetch)
		} else {
			value, err = fetch(ctx)
		}
		if err == nil {
			return &value
		}
		logger.Warn("Live sources failed", zap.String("asset", chain.Name), zap.Error(err))
	}

	value, source, err := providers.FirstSuccess(ctx, logger, chain.Name+" fallback", chain.Fallback)
	if err != nil {
		logger.Error("No value for asset", zap.String("asset", chain.Name), zap.Error(err))
		return nil
	}
	logger.Info("Using fallback value", zap.String("asset", chain.Name), zap.String("source", source))
	return &value
}

// RecordSnapshots stores the headline value of every present asset and
// returns how many were written. Hardcoded fallback values are not
// observations and are skipped.
func (s *MarketServiceImpl) RecordSnapshots(ctx context.Context, data *models.DashboardData) int {
	if data == nil {
		return 0
	}
	recorded := 0
	for _, snap := range data.Snapshots() {
		if models.IsFallbackSource(snap.Source) {
			continue
		}
		if err := snap.Validate(); err != nil {
			s.logger.Warn("Skipping invalid snapshot", zap.String("asset", snap.Asset), zap.Error(err))
			continue
		}
		if err := s.store.Record(ctx, snap.Asset, snap.Value, snap.CapturedAt); err != nil {
			s.logger.Warn("Failed to record snapshot", zap.String("asset", snap.Asset), zap.Error(err))
			continue
		}
		recorded++
	}
	return recorded
}

var _ MarketService = (*MarketServiceImpl)(nil)
