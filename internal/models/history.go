package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day key format used by the store, the seed
// tables and the payload time series.
const DateLayout = "2006-01-02"

// Period is one configured lookback window, e.g. {"1W", 7}.
type Period struct {
	Label string `json:"label" toml:"label"`
	Days  int    `json:"days" toml:"days"`
}

// HistoryEntry is one stored value for an asset on a calendar day.
// (asset, day) is unique; recording the same day again overwrites.
type HistoryEntry struct {
	Asset     string          `json:"asset" gorm:"primaryKey;size:32"`
	Day       string          `json:"date" gorm:"primaryKey;size:10"`
	Value     decimal.Decimal `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (HistoryEntry) TableName() string {
	return "history_entries"
}

// HistoricalChange is the delta over one period. ChangePercent is set iff
// OldValue is set.
type HistoricalChange struct {
	Period        string           `json:"period"`
	OldValue      *decimal.Decimal `json:"old_value"`
	NewValue      decimal.Decimal  `json:"new_value"`
	ChangePercent *decimal.Decimal `json:"change_percent"`
}

// DaySeries maps calendar-day keys to values, as returned by live
// history sources.
type DaySeries map[string]decimal.Decimal

type AssetHistoricalData struct {
	AssetName string             `json:"asset_name"`
	Changes   []HistoricalChange `json:"changes"`
}

var hundred = decimal.NewFromInt(100)

// ComputeChangePercent returns (new-old)/old*100 rounded to 2 places, or
// zero when old is zero.
func ComputeChangePercent(oldValue, newValue decimal.Decimal) decimal.Decimal {
	if oldValue.IsZero() {
		return decimal.Zero
	}
	return newValue.Sub(oldValue).Div(oldValue).Mul(hundred).Round(2)
}

func NewHistoricalChange(period string, oldValue *decimal.Decimal, newValue decimal.Decimal) HistoricalChange {
	c := HistoricalChange{Period: period, NewValue: newValue}
	if oldValue != nil {
		old := *oldValue
		pct := ComputeChangePercent(old, newValue)
		c.OldValue = &old
		c.ChangePercent = &pct
	}
	return c
}

// DateOnly normalizes t to midnight UTC of its own calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats the calendar day of t.
func DayKey(t time.Time) string {
	return DateOnly(t).Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD key into a UTC midnight time.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, day, time.UTC)
}

// DaysBetween is the signed calendar-day distance from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
