package model

import (
	"encoding/json"
	"strconv"
)

// Value is a derived number that may be absent because its lookback window is not yet filled.
type Value struct {
	V     float64
	Valid bool
}

// Some wraps a defined value.
func Some(v float64) Value { return Value{V: v, Valid: true} }

func (v Value) String() string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(v.V, 'f', 4, 64)
}

// MarshalJSON encodes an absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	if err := json.Unmarshal(data, &v.V); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// IndicatorRow is a PriceBar extended with its derived indicators.
type IndicatorRow struct {
	PriceBar
	SMAShort Value `json:"sma_short"`
	SMALong  Value `json:"sma_long"`
	RSI      Value `json:"rsi"`
	MACD     Value `json:"macd"`
}

// Feature returns the named derived field of the row.
func (r IndicatorRow) Feature(f Feature) (Value, bool) {
	switch f {
	case FeatureSMAShort:
		return r.SMAShort, true
	case FeatureSMALong:
		return r.SMALong, true
	case FeatureRSI:
		return r.RSI, true
	case FeatureMACD:
		return r.MACD, true
	}
	return Value{}, false
}

// IndicatorFrame is the full indicator output for one series.
type IndicatorFrame struct {
	ShortWindow int            `json:"short_window"`
	LongWindow  int            `json:"long_window"`
	RSIWindow   int            `json:"rsi_window"`
	Rows        []IndicatorRow `json:"rows"`
}

// Len returns the number of rows.
func (f *IndicatorFrame) Len() int { return len(f.Rows) }

// Tail returns the last n rows (or all of them).
func (f *IndicatorFrame) Tail(n int) []IndicatorRow {
	if n <= 0 || n >= len(f.Rows) {
		return f.Rows
	}
	return f.Rows[len(f.Rows)-n:]
}
