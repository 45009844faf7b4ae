package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/providers"
)

// CurrentSources supplies the current-value chain of every asset.
type CurrentSources interface {
	Gold() providers.Chain[models.GoldPrice]
	UsdVnd() providers.Chain[models.UsdVndRate]
	Bitcoin() providers.Chain[models.BitcoinPrice]
	Vn30() providers.Chain[models.Vn30Index]
	Land() providers.Chain[models.LandPrice]
}

// HistorySources supplies live history strategies per asset.
type HistorySources interface {
	History(asset string, longestDays int) []providers.Strategy[models.DaySeries]
	LiveWindowDays(asset string) int
}

// MarketService resolves current values and records them as observations.
type MarketService interface {
	FetchCurrent(ctx context.Context) *models.DashboardData
	RecordSnapshots(ctx context.Context, data *models.DashboardData) int
}

// HistoryService resolves per-period changes and chart series for an asset.
type HistoryService interface {
	Aggregate(ctx context.Context, asset string, current *decimal.Decimal) AssetHistory
}

// PipelineService runs one full refresh and publishes the payload.
type PipelineService interface {
	Run(ctx context.Context) (*models.Payload, error)
	LastPublished() (*models.Payload, error)
}

// AssetHistory is the aggregator output for one asset. History is nil when
// no current value was available to compare against.
type AssetHistory struct {
	History    *models.AssetHistoricalData
	Timeseries models.TimeSeries
}
