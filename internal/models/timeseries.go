package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// TimeSeriesPoint serializes as a [date, value] pair.
type TimeSeriesPoint struct {
	Date  string
	Value float64
}

func (p TimeSeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{p.Date, p.Value})
}

func (p *TimeSeriesPoint) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("timeseries point: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Date); err != nil {
		return fmt.Errorf("timeseries point date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Value); err != nil {
		return fmt.Errorf("timeseries point value: %w", err)
	}
	return nil
}

// TimeSeries is sorted ascending by date with one point per date.
type TimeSeries []TimeSeriesPoint

// TimeSeriesFromMap builds a sorted series from a date -> value map.
func TimeSeriesFromMap(m map[string]float64) TimeSeries {
	out := make(TimeSeries, 0, len(m))
	for d, v := range m {
		out = append(out, TimeSeriesPoint{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Last returns the most recent point.
func (ts TimeSeries) Last() (TimeSeriesPoint, bool) {
	if len(ts) == 0 {
		return TimeSeriesPoint{}, false
	}
	return ts[len(ts)-1], true
}
