package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/tropicaldog17/vngold/internal/db"
	"github.com/tropicaldog17/vngold/internal/models"
)

// GormStore keeps history in the history_entries table (sqlite or postgres).
type GormStore struct {
	db        *db.DB
	tolerance int
	now       func() time.Time
}

func NewGormStore(database *db.DB) *GormStore {
	return &GormStore{db: database, tolerance: DefaultToleranceDays, now: time.Now}
}

func (s *GormStore) Record(ctx context.Context, asset string, value decimal.Decimal, at time.Time) error {
	if err := validateRecord(asset, value); err != nil {
		return err
	}
	entry := models.HistoryEntry{Asset: asset, Day: models.DayKey(at), Value: value, UpdatedAt: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to record %s history: %w", asset, err)
	}
	return nil
}

func (s *GormStore) RecordIfAbsent(ctx context.Context, asset string, value decimal.Decimal, at time.Time) (bool, error) {
	if err := validateRecord(asset, value); err != nil {
		return false, err
	}
	entry := models.HistoryEntry{Asset: asset, Day: models.DayKey(at), Value: value, UpdatedAt: s.now()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return false, fmt.Errorf("failed to seed %s history: %w", asset, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) RecordMany(ctx context.Context, asset string, values map[string]decimal.Decimal) error {
	now := s.now()
	entries := make([]models.HistoryEntry, 0, len(values))
	for day, value := range values {
		if validateRecord(asset, value) != nil {
			continue
		}
		parsed, err := models.ParseDay(day)
		if err != nil {
			continue
		}
		entries = append(entries, models.HistoryEntry{Asset: asset, Day: models.DayKey(parsed), Value: value, UpdatedAt: now})
	}
	if len(entries) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).CreateInBatches(entries, 200).Error
	if err != nil {
		return fmt.Errorf("failed to backfill %s history: %w", asset, err)
	}
	return nil
}

func (s *GormStore) ValueAt(ctx context.Context, asset string, target time.Time) (decimal.Decimal, bool, error) {
	day := models.DateOnly(target)
	lo := day.AddDate(0, 0, -s.tolerance).Format(models.DateLayout)
	hi := day.AddDate(0, 0, s.tolerance).Format(models.DateLayout)

	var rows []models.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("asset = ? AND day >= ? AND day <= ?", asset, lo, hi).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to query %s history: %w", asset, err)
	}

	days := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		days[r.Day] = r.Value
	}
	v, ok := nearestDay(days, target, s.tolerance)
	return v, ok, nil
}

func (s *GormStore) Entries(ctx context.Context, asset string) ([]models.HistoryEntry, error) {
	var rows []models.HistoryEntry
	err := s.db.WithContext(ctx).Where("asset = ?", asset).Order("day ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s history: %w", asset, err)
	}
	return rows, nil
}

var _ HistoryStore = (*GormStore)(nil)
