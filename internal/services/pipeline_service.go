package services

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/config"
	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/fileutil"
	"github.com/tropicaldog17/vngold/internal/logger"
	"github.com/tropicaldog17/vngold/internal/models"
)

// PipelineServiceImpl runs fetch, record, history, assemble, health and
// persist for one refresh. Runs are serialized.
type PipelineServiceImpl struct {
	market  MarketService
	history HistoryService
	config  *config.Config
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

func NewPipelineService(market MarketService, history HistoryService, cfg *config.Config, log *zap.Logger, now func() time.Time) PipelineService {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &PipelineServiceImpl{market: market, history: history, config: cfg, logger: log, now: now}
}

// Run publishes a fresh payload. Source failures only degrade the payload;
// the returned error is set only when the payload could not be written.
func (s *PipelineServiceImpl) Run(ctx context.Context) (*models.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	log := logger.ForRun(s.logger, runID)
	started := s.now()
	log.Info("Refresh started")

	data := s.market.FetchCurrent(ctx)
	recorded := s.market.RecordSnapshots(ctx, data)
	log.Debug("Recorded snapshots", zap.Int("count", recorded))

	current := data.CurrentValues()
	histories := s.aggregate(ctx, current)

	now := s.now()
	payload := BuildPayload(data, histories, BuildLandBenchmark(data, s.config.Land), now)
	payload.Timeseries = MergeCurrentIntoTimeseries(payload.Timeseries, current, now)

	report, severe, degraded := AssessPayloadHealth(payload)
	if severe {
		log.Warn("Severe degradation", zap.Strings("degraded", degraded))
		previous, err := LoadPayload(s.config.Storage.PayloadFile)
		if err != nil {
			log.Warn("Last known good payload unreadable", zap.Error(err))
		}
		if restored := RestoreDegradedAssetsFromLKG(payload, previous, degraded); len(restored) > 0 {
			log.Info("Restored assets from last known good", zap.Strings("assets", restored))
			report, _, _ = AssessPayloadHealth(payload)
			report.RestoredFromLKG = restored
		}
	}
	report.RunID = runID
	payload.Health = report

	if err := fileutil.WriteJSON(s.config.Storage.PayloadFile, payload); err != nil {
		log.Error("Failed to write payload", zap.String("path", s.config.Storage.PayloadFile), zap.Error(err))
		return nil, fmt.Errorf("write payload: %w", err)
	}

	log.Info("Refresh finished",
		zap.String("status", report.Status),
		zap.Bool("severe", report.SevereDegradation),
		zap.Strings("degraded", report.DegradedAssets),
		zap.Duration("elapsed", s.now().Sub(started)))
	return payload, nil
}

// aggregate runs the history tiers of every asset concurrently; the store
// serializes its own writes.
func (s *PipelineServiceImpl) aggregate(ctx context.Context, current map[string]decimal.Decimal) map[string]AssetHistory {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]AssetHistory, len(models.AllAssets))
	)
	for _, asset := range models.AllAssets {
		var value *decimal.Decimal
		if v, ok := current[asset]; ok {
			value = &v
		}
		wg.Add(1)
		go func(asset string, value *decimal.Decimal) {
			defer wg.Done()
			h := s.history.Aggregate(ctx, asset, value)
			mu.Lock()
			out[asset] = h
			mu.Unlock()
		}(asset, value)
	}
	wg.Wait()
	return out
}

// LastPublished returns the payload on disk.
func (s *PipelineServiceImpl) LastPublished() (*models.Payload, error) {
	p, err := LoadPayload(s.config.Storage.PayloadFile)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &apperrors.ErrStorageUnavailable{Path: s.config.Storage.PayloadFile, Err: fs.ErrNotExist}
	}
	return p, nil
}

var _ PipelineService = (*PipelineServiceImpl)(nil)
