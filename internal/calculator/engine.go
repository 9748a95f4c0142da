package calculator

import (
	"fmt"

	"StockScope/internal/model"
)

// MinWindow is the smallest short SMA or RSI window.
const MinWindow = 2

// Options are the indicator windows.
type Options struct {
	ShortWindow int
	LongWindow  int
	RSIWindow   int
	RSIMethod   RSIMethod
	MACDFast    int
	MACDSlow    int
}

// DefaultOptions returns SMA(20)/SMA(50), RSI(14) and MACD(12,26).
func DefaultOptions() Options {
	return Options{
		ShortWindow: 20,
		LongWindow:  50,
		RSIWindow:   14,
		RSIMethod:   RSISimple,
		MACDFast:    12,
		MACDSlow:    26,
	}
}

// Validate checks the windows are usable.
func (o Options) Validate() error {
	if o.ShortWindow <= 0 || o.LongWindow <= 0 || o.RSIWindow <= 0 || o.MACDFast <= 0 || o.MACDSlow <= 0 {
		return ErrInvalidPeriod
	}
	if o.ShortWindow < MinWindow || o.RSIWindow < MinWindow {
		return fmt.Errorf("%w: short and RSI windows must be >= %d, got %d and %d", ErrInvalidPeriod, MinWindow, o.ShortWindow, o.RSIWindow)
	}
	if o.LongWindow < o.ShortWindow {
		return fmt.Errorf("%w: long window %d is shorter than short window %d", ErrInvalidPeriod, o.LongWindow, o.ShortWindow)
	}
	return nil
}

// RequiredBars is the length of the longest lookback window.
func (o Options) RequiredBars() int {
	need := o.LongWindow
	if o.ShortWindow > need {
		need = o.ShortWindow
	}
	if o.RSIWindow+1 > need {
		need = o.RSIWindow + 1
	}
	return need
}

// Compute derives SMA short/long, RSI and MACD for every bar.
// It returns nothing at all when the series is shorter than the longest window.
func Compute(bars []model.PriceBar, opts Options) (*model.IndicatorFrame, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if need := opts.RequiredBars(); len(bars) < need {
		return nil, &InsufficientDataError{Window: "indicator frame", Have: len(bars), Need: need}
	}
	if err := model.ValidateSeries(bars); err != nil {
		return nil, err
	}

	closes := model.Closes(bars)
	smaShort, err := SMA(closes, opts.ShortWindow)
	if err != nil {
		return nil, fmt.Errorf("short SMA: %w", err)
	}
	smaLong, err := SMA(closes, opts.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("long SMA: %w", err)
	}
	rsi, err := RSI(closes, opts.RSIWindow, opts.RSIMethod)
	if err != nil {
		return nil, fmt.Errorf("RSI: %w", err)
	}
	macd, err := MACD(closes, opts.MACDFast, opts.MACDSlow)
	if err != nil {
		return nil, fmt.Errorf("MACD: %w", err)
	}

	frame := &model.IndicatorFrame{
		ShortWindow: opts.ShortWindow,
		LongWindow:  opts.LongWindow,
		RSIWindow:   opts.RSIWindow,
		Rows:        make([]model.IndicatorRow, len(bars)),
	}
	for i, b := range bars {
		frame.Rows[i] = model.IndicatorRow{
			PriceBar: b,
			SMAShort: smaShort[i],
			SMALong:  smaLong[i],
			RSI:      rsi[i],
			MACD:     macd[i],
		}
	}
	return frame, nil
}
