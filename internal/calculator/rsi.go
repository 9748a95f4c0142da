package calculator

import (
	"fmt"

	"StockScope/internal/model"
)

// RSIMethod selects how average gains and losses are formed.
type RSIMethod string

const (
	// RSISimple averages gains and losses over the trailing window.
	RSISimple RSIMethod = "simple"
	// RSIWilder seeds with the simple average, then applies Wilder smoothing.
	RSIWilder RSIMethod = "wilder"
)

// RSI returns the relative strength index for every index using the chosen method.
// The first period indices are undefined since period price changes are needed.
func RSI(prices []float64, period int, method RSIMethod) ([]model.Value, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(prices) < period+1 {
		return nil, &InsufficientDataError{Window: fmt.Sprintf("RSI(%d)", period), Have: len(prices), Need: period + 1}
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	out := make([]model.Value, len(prices))
	switch method {
	case RSIWilder:
		var avgGain, avgLoss float64
		for i := 1; i <= period; i++ {
			avgGain += gains[i]
			avgLoss += losses[i]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		out[period] = model.Some(rsiFromAverages(avgGain, avgLoss))
		for i := period + 1; i < len(prices); i++ {
			avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
			out[i] = model.Some(rsiFromAverages(avgGain, avgLoss))
		}
	case RSISimple, "":
		for i := period; i < len(prices); i++ {
			var sumGain, sumLoss float64
			for j := i - period + 1; j <= i; j++ {
				sumGain += gains[j]
				sumLoss += losses[j]
			}
			out[i] = model.Some(rsiFromAverages(sumGain/float64(period), sumLoss/float64(period)))
		}
	default:
		return nil, fmt.Errorf("unknown RSI method %q", method)
	}
	return out, nil
}

// rsiFromAverages caps RSI at 100 when there were no losses, and returns 50 for a flat window.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}
