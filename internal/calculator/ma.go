package calculator

import (
	"fmt"

	"StockScope/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < period {
		return 0, &InsufficientDataError{Window: fmt.Sprintf("SMA(%d)", period), Have: len(prices), Need: period}
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMA returns the trailing simple moving average for every index.
// Indices before period-1 are left undefined.
func SMA(prices []float64, period int) ([]model.Value, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(prices) < period {
		return nil, &InsufficientDataError{Window: fmt.Sprintf("SMA(%d)", period), Have: len(prices), Need: period}
	}
	out := make([]model.Value, len(prices))
	for i := period - 1; i < len(prices); i++ {
		// Summing each window directly keeps every value an exact window mean.
		v, err := CalculateSMA(prices[:i+1], period)
		if err != nil {
			return nil, err
		}
		out[i] = model.Some(v)
	}
	return out, nil
}

// EMA returns the exponential moving average with alpha = 2/(span+1),
// seeded with the first observation.
func EMA(prices []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(prices) == 0 {
		return nil, &InsufficientDataError{Window: fmt.Sprintf("EMA(%d)", span), Have: 0, Need: 1}
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACD returns EMA(fast) - EMA(slow) for every index.
func MACD(prices []float64, fast, slow int) ([]model.Value, error) {
	if fast <= 0 || slow <= 0 {
		return nil, ErrInvalidPeriod
	}
	fastEMA, err := EMA(prices, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := EMA(prices, slow)
	if err != nil {
		return nil, err
	}
	out := make([]model.Value, len(prices))
	for i := range prices {
		out[i] = model.Some(fastEMA[i] - slowEMA[i])
	}
	return out, nil
}
