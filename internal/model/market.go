package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnorderedSeries is returned when bars are not strictly increasing in time.
var ErrUnorderedSeries = errors.New("price series is not strictly chronological")

// PriceBar represents a single candlestick bar.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Interval is the bar size requested from a data source.
type Interval string

const (
	IntervalDaily  Interval = "1d"
	IntervalWeekly Interval = "1wk"
)

// Range selects the bars of one symbol between two dates (inclusive).
type Range struct {
	From     time.Time
	To       time.Time
	Interval Interval
}

// LastDays returns a daily range ending today and reaching back n calendar days.
func LastDays(n int) Range {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	return Range{From: to.AddDate(0, 0, -n), To: to, Interval: IntervalDaily}
}

// Key is the stable string form used in cache keys.
func (r Range) Key() string {
	interval := r.Interval
	if interval == "" {
		interval = IntervalDaily
	}
	return fmt.Sprintf("%s:%s:%s", interval, r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
}

// PriceSeries holds raw price data for one symbol.
type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Source    string     `json:"source"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// ValidateSeries checks that bars are chronological with no duplicate dates.
func ValidateSeries(bars []PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) does not follow %s", ErrUnorderedSeries,
				i, bars[i].Time.Format(time.DateOnly), bars[i-1].Time.Format(time.DateOnly))
		}
	}
	return nil
}

// Closes extracts the close prices of bars.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
