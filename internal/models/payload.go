package models

// Payload is the published dashboard document. It doubles as the
// last-known-good source for the next run.
type Payload struct {
	Gold          *GoldBlock               `json:"gold,omitempty"`
	UsdVnd        *UsdVndBlock             `json:"usd_vnd,omitempty"`
	Bitcoin       *BitcoinBlock            `json:"bitcoin,omitempty"`
	Vn30          *Vn30Block               `json:"vn30,omitempty"`
	LandBenchmark *LandBenchmark           `json:"land_benchmark,omitempty"`
	History       map[string][]ChangeBlock `json:"history"`
	Timeseries    map[string]TimeSeries    `json:"timeseries"`
	Health        *HealthReport            `json:"health,omitempty"`
	GeneratedAt   string                   `json:"generated_at"`
}

type GoldBlock struct {
	BuyPrice  *float64 `json:"buy_price"`
	SellPrice *float64 `json:"sell_price"`
	Unit      string   `json:"unit"`
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp,omitempty"`
}

type UsdVndBlock struct {
	SellRate  *float64 `json:"sell_rate"`
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp,omitempty"`
}

type BitcoinBlock struct {
	BtcToVnd  *float64 `json:"btc_to_vnd"`
	Source    string   `json:"source"`
	Timestamp string   `json:"timestamp,omitempty"`
}

type Vn30Block struct {
	IndexValue    *float64 `json:"index_value"`
	ChangePercent *float64 `json:"change_percent"`
	Source        string   `json:"source"`
	Timestamp     string   `json:"timestamp,omitempty"`
}

type LandBlock struct {
	PricePerM2 *float64 `json:"price_per_m2"`
	Location   string   `json:"location"`
	Unit       string   `json:"unit"`
	Source     string   `json:"source"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Mid float64 `json:"mid"`
}

type LandComparisons struct {
	GoldTaelPerM2 *float64 `json:"gold_tael_per_m2"`
	M2PerGoldTael *float64 `json:"m2_per_gold_tael"`
	M2PerBTC      *float64 `json:"m2_per_btc"`
	M2Per1MUSD    *float64 `json:"m2_per_1m_usd"`
}

type LandBenchmark struct {
	Location    string          `json:"location"`
	Unit        string          `json:"unit"`
	Source      string          `json:"source"`
	PriceRange  PriceRange      `json:"price_range_vnd_per_m2"`
	Current     *LandBlock      `json:"current,omitempty"`
	Comparisons LandComparisons `json:"comparisons"`
}

// ChangeBlock is the serialized form of a HistoricalChange.
type ChangeBlock struct {
	Period        string   `json:"period"`
	OldValue      *float64 `json:"old_value"`
	NewValue      *float64 `json:"new_value"`
	ChangePercent *float64 `json:"change_percent"`
}

const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Reasons recorded in AssetHealth.
const (
	ReasonMissingValueBlock      = "missing_value_block"
	ReasonMissingSellPrice       = "missing_sell_price"
	ReasonMissingSellRate        = "missing_sell_rate"
	ReasonMissingBtcToVnd        = "missing_btc_to_vnd"
	ReasonMissingIndexValue      = "missing_index_value"
	ReasonFallbackSource         = "hardcoded_fallback_source"
	ReasonInsufficientTimeseries = "insufficient_timeseries"
	ReasonMissingHistoryPeriods  = "missing_history_periods"
)

type AssetHealth struct {
	Status         string   `json:"status"`
	Reasons        []string `json:"reasons"`
	MissingPeriods []string `json:"missing_periods,omitempty"`
}

type HealthReport struct {
	Status            string                 `json:"status"`
	SevereDegradation bool                   `json:"severe_degradation"`
	DegradedAssets    []string               `json:"degraded_assets"`
	RestoredFromLKG   []string               `json:"restored_from_lkg,omitempty"`
	RunID             string                 `json:"run_id,omitempty"`
	Assets            map[string]AssetHealth `json:"assets"`
}
