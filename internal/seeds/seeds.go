// Package seeds holds hand-verified historical anchors per asset. They
// give sparse long-horizon coverage before the local store has
// accumulated its own record. Every entry carries a provenance note.
package seeds

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/vngold/internal/models"
)

// DefaultToleranceDays is the nearest-anchor window used when the caller
// has no tighter requirement.
const DefaultToleranceDays = 20

// Anchor is one curated (date, value) point.
type Anchor struct {
	Date  string
	Value decimal.Decimal
	Note  string
}

// For returns the anchor table of an asset, or nil for unknown assets.
func For(asset string) []Anchor {
	switch asset {
	case models.AssetGold:
		return Gold
	case models.AssetUsdVnd:
		return UsdVnd
	case models.AssetBitcoin:
		return Bitcoin
	case models.AssetVn30:
		return Vn30
	case models.AssetLand:
		return Land
	}
	return nil
}

// Protective reports whether seeding must leave existing store days
// untouched. Index and land stores are fed by organic observations that
// outrank the curated anchors.
func Protective(asset string) bool {
	return asset == models.AssetVn30 || asset == models.AssetLand
}

// Nearest returns the anchor value closest to target's calendar day within
// maxDeltaDays. On a tie the earlier anchor wins.
func Nearest(anchors []Anchor, target time.Time, maxDeltaDays int) (decimal.Decimal, bool) {
	var (
		best      decimal.Decimal
		bestDelta = -1
		bestDay   string
	)
	for _, anchor := range anchors {
		day, err := models.ParseDay(anchor.Date)
		if err != nil {
			continue
		}
		delta := models.DaysBetween(target, day)
		if delta < 0 {
			delta = -delta
		}
		if delta > maxDeltaDays {
			continue
		}
		if bestDelta < 0 || delta < bestDelta || (delta == bestDelta && anchor.Date < bestDay) {
			best, bestDelta, bestDay = anchor.Value, delta, anchor.Date
		}
	}
	return best, bestDelta >= 0
}

// Points converts anchors into a date -> float map for chart merging.
func Points(anchors []Anchor) map[string]float64 {
	out := make(map[string]float64, len(anchors))
	for _, anchor := range anchors {
		out[anchor.Date] = anchor.Value.InexactFloat64()
	}
	return out
}
