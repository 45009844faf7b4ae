package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
)

const (
	UnitVNDPerTael = "VND/tael"
	UnitVNDPerM2   = "VND/m2"
)

// GoldPrice is the SJC-style retail gold quote per tael.
type GoldPrice struct {
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Unit      string          `json:"unit"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

func (g *GoldPrice) Validate() error {
	if !g.BuyPrice.IsPositive() || !g.SellPrice.IsPositive() {
		return &apperrors.ErrValidation{Field: "gold", Message: "prices must be positive"}
	}
	return nil
}

// UsdVndRate is the free-market USD sell rate in VND.
type UsdVndRate struct {
	SellRate  decimal.Decimal `json:"sell_rate"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

func (u *UsdVndRate) Validate() error {
	if !u.SellRate.IsPositive() {
		return &apperrors.ErrValidation{Field: "usd_vnd", Message: "exchange rate must be positive"}
	}
	return nil
}

type BitcoinPrice struct {
	BtcToVnd  decimal.Decimal `json:"btc_to_vnd"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

func (b *BitcoinPrice) Validate() error {
	if !b.BtcToVnd.IsPositive() {
		return &apperrors.ErrValidation{Field: "bitcoin", Message: "BTC price must be positive"}
	}
	return nil
}

// Vn30Index carries the index level and, when the source reports it, the
// day change in percent.
type Vn30Index struct {
	IndexValue    decimal.Decimal  `json:"index_value"`
	ChangePercent *decimal.Decimal `json:"change_percent"`
	Source        string           `json:"source"`
	Timestamp     time.Time        `json:"timestamp"`
}

func (v *Vn30Index) Validate() error {
	if !v.IndexValue.IsPositive() {
		return &apperrors.ErrValidation{Field: "vn30", Message: "index value must be positive"}
	}
	return nil
}

type LandPrice struct {
	PricePerM2 decimal.Decimal `json:"price_per_m2"`
	Location   string          `json:"location"`
	Unit       string          `json:"unit"`
	Source     string          `json:"source"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (l *LandPrice) Validate() error {
	if !l.PricePerM2.IsPositive() {
		return &apperrors.ErrValidation{Field: "land", Message: "price per m2 must be positive"}
	}
	return nil
}

// DashboardData holds the current value of every asset that could be fetched.
type DashboardData struct {
	Gold    *GoldPrice
	UsdVnd  *UsdVndRate
	Bitcoin *BitcoinPrice
	Vn30    *Vn30Index
	Land    *LandPrice
}

// Snapshots returns the headline value of each present asset. Gold is
// tracked by its sell price.
func (d *DashboardData) Snapshots() []AssetSnapshot {
	var out []AssetSnapshot
	if d.Gold != nil {
		out = append(out, AssetSnapshot{Asset: AssetGold, Value: d.Gold.SellPrice, Source: d.Gold.Source, CapturedAt: d.Gold.Timestamp})
	}
	if d.UsdVnd != nil {
		out = append(out, AssetSnapshot{Asset: AssetUsdVnd, Value: d.UsdVnd.SellRate, Source: d.UsdVnd.Source, CapturedAt: d.UsdVnd.Timestamp})
	}
	if d.Bitcoin != nil {
		out = append(out, AssetSnapshot{Asset: AssetBitcoin, Value: d.Bitcoin.BtcToVnd, Source: d.Bitcoin.Source, CapturedAt: d.Bitcoin.Timestamp})
	}
	if d.Vn30 != nil {
		out = append(out, AssetSnapshot{Asset: AssetVn30, Value: d.Vn30.IndexValue, Source: d.Vn30.Source, CapturedAt: d.Vn30.Timestamp})
	}
	if d.Land != nil {
		out = append(out, AssetSnapshot{Asset: AssetLand, Value: d.Land.PricePerM2, Source: d.Land.Source, CapturedAt: d.Land.Timestamp})
	}
	return out
}

// CurrentValues maps asset key to headline value for present assets.
func (d *DashboardData) CurrentValues() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, s := range d.Snapshots() {
		out[s.Asset] = s.Value
	}
	return out
}
