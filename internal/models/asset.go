package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
)

// Asset keys used in the store, the payload and the seed tables.
const (
	AssetGold    = "gold"
	AssetUsdVnd  = "usd_vnd"
	AssetBitcoin = "bitcoin"
	AssetVn30    = "vn30"
	AssetLand    = "land"
)

// AllAssets lists every tracked indicator in payload order.
var AllAssets = []string{AssetGold, AssetUsdVnd, AssetBitcoin, AssetVn30, AssetLand}

// RequiredAssets are the assets whose absence degrades the published
// payload. Land is comparison-only.
var RequiredAssets = []string{AssetGold, AssetUsdVnd, AssetBitcoin, AssetVn30}

// FallbackSourcePrefix marks values produced by a hardcoded last-resort strategy.
const FallbackSourcePrefix = "Fallback"

func IsKnownAsset(asset string) bool {
	for _, a := range AllAssets {
		if a == asset {
			return true
		}
	}
	return false
}

func IsFallbackSource(source string) bool {
	return strings.HasPrefix(source, FallbackSourcePrefix)
}

// AssetSnapshot is one observed value of an indicator.
type AssetSnapshot struct {
	Asset      string          `json:"asset"`
	Value      decimal.Decimal `json:"value"`
	Source     string          `json:"source"`
	CapturedAt time.Time       `json:"captured_at"`
}

func (s AssetSnapshot) Validate() error {
	if !IsKnownAsset(s.Asset) {
		return &apperrors.ErrValidation{Field: "asset", Message: "unknown asset " + s.Asset}
	}
	if !s.Value.IsPositive() {
		return &apperrors.ErrValidation{Field: "value", Message: "must be positive"}
	}
	return nil
}
