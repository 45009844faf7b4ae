package services

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/vngold/internal/config"
	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
)

// Land benchmark constants for the tracked street.
const (
	BenchmarkLocation = "Hong Bang Street, District 11, Ho Chi Minh City"
	BenchmarkSource   = "Manual estimate (user-provided)"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	two      = decimal.NewFromInt(2)
	ratioDPs = int32(8)
)

// FormatInstant renders t as an ISO-8601 UTC instant with a Z suffix.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func floatPtr(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatInstant(t)
}

// BuildPayload serializes the current values and aggregated histories.
// Health is left for AssessPayloadHealth.
func BuildPayload(data *models.DashboardData, histories map[string]AssetHistory, benchmark *models.LandBenchmark, generatedAt time.Time) *models.Payload {
	p := &models.Payload{
		LandBenchmark: benchmark,
		History:       make(map[string][]models.ChangeBlock),
		Timeseries:    make(map[string]models.TimeSeries),
		GeneratedAt:   FormatInstant(generatedAt),
	}

	if data != nil {
		if g := data.Gold; g != nil {
			p.Gold = &models.GoldBlock{
				BuyPrice:  floatPtr(g.BuyPrice),
				SellPrice: floatPtr(g.SellPrice),
				Unit:      g.Unit,
				Source:    g.Source,
				Timestamp: formatTimestamp(g.Timestamp),
			}
		}
		if u := data.UsdVnd; u != nil {
			p.UsdVnd = &models.UsdVndBlock{SellRate: floatPtr(u.SellRate), Source: u.Source, Timestamp: formatTimestamp(u.Timestamp)}
		}
		if b := data.Bitcoin; b != nil {
			p.Bitcoin = &models.BitcoinBlock{BtcToVnd: floatPtr(b.BtcToVnd), Source: b.Source, Timestamp: formatTimestamp(b.Timestamp)}
		}
		if v := data.Vn30; v != nil {
			block := &models.Vn30Block{IndexValue: floatPtr(v.IndexValue), Source: v.Source, Timestamp: formatTimestamp(v.Timestamp)}
			if v.ChangePercent != nil {
				block.ChangePercent = floatPtr(*v.ChangePercent)
			}
			p.Vn30 = block
		}
	}

	for asset, h := range histories {
		if h.History != nil {
			p.History[asset] = changeBlocks(h.History.Changes)
		}
		if len(h.Timeseries) > 0 {
			p.Timeseries[asset] = h.Timeseries
		}
	}
	return p
}

func changeBlocks(changes []models.HistoricalChange) []models.ChangeBlock {
	out := make([]models.ChangeBlock, 0, len(changes))
	for _, c := range changes {
		block := models.ChangeBlock{Period: c.Period, NewValue: floatPtr(c.NewValue)}
		if c.OldValue != nil {
			block.OldValue = floatPtr(*c.OldValue)
		}
		if c.ChangePercent != nil {
			block.ChangePercent = floatPtr(*c.ChangePercent)
		}
		out = append(out, block)
	}
	return out
}

// BuildLandBenchmark prices the benchmark street against the other assets
// using the midpoint of the configured range.
func BuildLandBenchmark(data *models.DashboardData, land config.LandConfig) *models.LandBenchmark {
	lo, _ := decimal.NewFromString(land.BenchmarkLo)
	hi, _ := decimal.NewFromString(land.BenchmarkHi)
	mid := lo.Add(hi).Div(two)

	b := &models.LandBenchmark{
		Location: BenchmarkLocation,
		Unit:     models.UnitVNDPerM2,
		Source:   BenchmarkSource,
		PriceRange: models.PriceRange{
			Min: lo.InexactFloat64(),
			Max: hi.InexactFloat64(),
			Mid: mid.InexactFloat64(),
		},
	}
	if data == nil {
		return b
	}

	if l := data.Land; l != nil {
		b.Current = &models.LandBlock{
			PricePerM2: floatPtr(l.PricePerM2),
			Location:   l.Location,
			Unit:       l.Unit,
			Source:     l.Source,
			Timestamp:  formatTimestamp(l.Timestamp),
		}
	}

	var gold, btc, usd *decimal.Decimal
	if data.Gold != nil {
		gold = &data.Gold.SellPrice
	}
	if data.Bitcoin != nil {
		btc = &data.Bitcoin.BtcToVnd
	}
	if data.UsdVnd != nil {
		v := data.UsdVnd.SellRate.Mul(million)
		usd = &v
	}
	b.Comparisons = models.LandComparisons{
		GoldTaelPerM2: ratio(&mid, gold),
		M2PerGoldTael: ratio(gold, &mid),
		M2PerBTC:      ratio(btc, &mid),
		M2Per1MUSD:    ratio(usd, &mid),
	}
	return b
}

// ratio returns num/den rounded to 8 places, or nil when either side is
// missing or zero.
func ratio(num, den *decimal.Decimal) *float64 {
	if num == nil || den == nil || num.IsZero() || den.IsZero() {
		return nil
	}
	return floatPtr(num.Div(*den).Round(ratioDPs))
}

// MergeCurrentIntoTimeseries makes today's point of every series carry the
// current value. Points dated after today are dropped.
func MergeCurrentIntoTimeseries(series map[string]models.TimeSeries, current map[string]decimal.Decimal, today time.Time) map[string]models.TimeSeries {
	if series == nil {
		series = make(map[string]models.TimeSeries)
	}
	day := models.DayKey(today)
	for asset, value := range current {
		existing := series[asset]
		merged := make(models.TimeSeries, 0, len(existing)+1)
		found := false
		for _, p := range existing {
			if p.Date > day {
				continue
			}
			if p.Date == day {
				p.Value = value.InexactFloat64()
				found = true
			}
			merged = append(merged, p)
		}
		if !found {
			merged = append(merged, models.TimeSeriesPoint{Date: day, Value: value.InexactFloat64()})
		}
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
		series[asset] = merged
	}
	return series
}

// severeReasons trigger last-known-good restoration. A missing gold, bitcoin
// or vn30 value field only degrades its asset.
var severeReasons = map[string]bool{
	models.ReasonMissingValueBlock: true,
	models.ReasonMissingSellRate:   true,
}

// valueCheck returns the source of the required asset's block and the
// reasons its value fields fail. present is false when the block is absent.
func valueCheck(p *models.Payload, asset string) (source string, reasons []string, present bool) {
	switch asset {
	case models.AssetGold:
		if p.Gold == nil {
			return "", nil, false
		}
		if p.Gold.SellPrice == nil {
			reasons = append(reasons, models.ReasonMissingSellPrice)
		}
		return p.Gold.Source, reasons, true
	case models.AssetUsdVnd:
		if p.UsdVnd == nil {
			return "", nil, false
		}
		if p.UsdVnd.SellRate == nil {
			reasons = append(reasons, models.ReasonMissingSellRate)
		}
		return p.UsdVnd.Source, reasons, true
	case models.AssetBitcoin:
		if p.Bitcoin == nil {
			return "", nil, false
		}
		if p.Bitcoin.BtcToVnd == nil {
			reasons = append(reasons, models.ReasonMissingBtcToVnd)
		}
		return p.Bitcoin.Source, reasons, true
	case models.AssetVn30:
		if p.Vn30 == nil {
			return "", nil, false
		}
		if p.Vn30.IndexValue == nil {
			reasons = append(reasons, models.ReasonMissingIndexValue)
		}
		return p.Vn30.Source, reasons, true
	}
	return "", nil, false
}

// AssessPayloadHealth inspects every required asset. severe is set only
// when a required block is absent or usd_vnd has no rate. Everything else
// merely degrades.
func AssessPayloadHealth(p *models.Payload) (report *models.HealthReport, severe bool, degraded []string) {
	report = &models.HealthReport{
		Status:         models.HealthOK,
		DegradedAssets: []string{},
		Assets:         make(map[string]models.AssetHealth, len(models.RequiredAssets)),
	}

	for _, asset := range models.RequiredAssets {
		health := models.AssetHealth{Status: models.HealthOK, Reasons: []string{}}

		source, reasons, present := valueCheck(p, asset)
		if !present {
			health.Reasons = append(health.Reasons, models.ReasonMissingValueBlock)
		} else {
			health.Reasons = append(health.Reasons, reasons...)
			if models.IsFallbackSource(source) {
				health.Reasons = append(health.Reasons, models.ReasonFallbackSource)
			}
			if asset == models.AssetVn30 && len(p.Timeseries[asset]) < 2 {
				health.Reasons = append(health.Reasons, models.ReasonInsufficientTimeseries)
			}
			changes, ok := p.History[asset]
			for _, c := range changes {
				if c.ChangePercent == nil {
					health.MissingPeriods = append(health.MissingPeriods, c.Period)
				}
			}
			if !ok || len(health.MissingPeriods) > 0 {
				health.Reasons = append(health.Reasons, models.ReasonMissingHistoryPeriods)
			}
		}

		if len(health.Reasons) > 0 {
			health.Status = models.HealthDegraded
			degraded = append(degraded, asset)
			for _, r := range health.Reasons {
				if severeReasons[r] {
					severe = true
				}
			}
		}
		report.Assets[asset] = health
	}

	if len(degraded) > 0 {
		report.Status = models.HealthDegraded
		report.DegradedAssets = degraded
	}
	report.SevereDegradation = severe
	return report, severe, degraded
}

// RestoreDegradedAssetsFromLKG replaces the value, history and timeseries
// of each degraded asset with the previous payload's blocks. Assets the
// previous payload does not carry are left alone. It returns the assets
// actually restored.
func RestoreDegradedAssetsFromLKG(p, previous *models.Payload, degraded []string) []string {
	if p == nil || previous == nil {
		return nil
	}
	if p.History == nil {
		p.History = make(map[string][]models.ChangeBlock)
	}
	if p.Timeseries == nil {
		p.Timeseries = make(map[string]models.TimeSeries)
	}

	var restored []string
	for _, asset := range degraded {
		switch asset {
		case models.AssetGold:
			if previous.Gold == nil {
				continue
			}
			p.Gold = previous.Gold
		case models.AssetUsdVnd:
			if previous.UsdVnd == nil {
				continue
			}
			p.UsdVnd = previous.UsdVnd
		case models.AssetBitcoin:
			if previous.Bitcoin == nil {
				continue
			}
			p.Bitcoin = previous.Bitcoin
		case models.AssetVn30:
			if previous.Vn30 == nil {
				continue
			}
			p.Vn30 = previous.Vn30
		default:
			continue
		}

		if h, ok := previous.History[asset]; ok {
			p.History[asset] = h
		} else {
			delete(p.History, asset)
		}
		if ts, ok := previous.Timeseries[asset]; ok {
			p.Timeseries[asset] = ts
		} else {
			delete(p.Timeseries, asset)
		}
		restored = append(restored, asset)
	}
	return restored
}

// LoadPayload reads a previously published payload. A missing file yields
// (nil, nil); an unreadable or corrupt one a storage-unavailable error.
func LoadPayload(path string) (*models.Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &apperrors.ErrStorageUnavailable{Path: path, Err: err}
	}
	var p models.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &apperrors.ErrStorageUnavailable{Path: path, Err: err}
	}
	return &p, nil
}
