// Package store keeps the day-granular local history of every asset.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
)

// DefaultToleranceDays bounds ValueAt lookups.
const DefaultToleranceDays = 3

// HistoryStore owns the (asset, day) -> value collection. At most one
// entry exists per asset and calendar day.
type HistoryStore interface {
	// Record upserts the value for at's calendar day.
	Record(ctx context.Context, asset string, value decimal.Decimal, at time.Time) error
	// RecordIfAbsent writes only when the day has no entry yet and reports
	// whether it wrote.
	RecordIfAbsent(ctx context.Context, asset string, value decimal.Decimal, at time.Time) (bool, error)
	// RecordMany upserts day -> value pairs; invalid days or values are skipped.
	RecordMany(ctx context.Context, asset string, values map[string]decimal.Decimal) error
	// ValueAt returns the entry nearest to target's calendar day within
	// the store tolerance. Equidistant entries resolve to the earlier day.
	ValueAt(ctx context.Context, asset string, target time.Time) (decimal.Decimal, bool, error)
	// Entries lists all entries for asset, ascending by day.
	Entries(ctx context.Context, asset string) ([]models.HistoryEntry, error)
}

func validateRecord(asset string, value decimal.Decimal) error {
	if asset == "" {
		return &apperrors.ErrValidation{Field: "asset", Message: "is required"}
	}
	if !value.IsPositive() {
		return &apperrors.ErrValidation{Field: "value", Message: "must be positive"}
	}
	return nil
}

// nearestDay picks the day closest to target within tolerance. days maps
// YYYY-MM-DD to value; unparsable keys are skipped.
func nearestDay(days map[string]decimal.Decimal, target time.Time, tolerance int) (decimal.Decimal, bool) {
	var (
		best      decimal.Decimal
		bestDay   string
		bestDelta = -1
	)
	for key, value := range days {
		day, err := models.ParseDay(key)
		if err != nil {
			continue
		}
		delta := models.DaysBetween(target, day)
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			continue
		}
		if bestDelta < 0 || delta < bestDelta || (delta == bestDelta && key < bestDay) {
			best, bestDay, bestDelta = value, key, delta
		}
	}
	return best, bestDelta >= 0
}

func sortEntries(entries []models.HistoryEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Day < entries[j].Day })
}
