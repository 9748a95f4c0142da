package strategy

import (
	"fmt"
	"math"

	"StockScope/internal/model"
)

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

// scoreLongDeviation scores how far the close sits from the long SMA.
// Weight: 0.35
func scoreLongDeviation(row model.IndicatorRow) model.FactorScore {
	const name, weight = "Long SMA deviation", 0.35
	if !row.SMALong.Valid || row.SMALong.V == 0 {
		return factor(name, 0, weight, "n/a")
	}
	deviation := (row.Close - row.SMALong.V) / row.SMALong.V * 100

	var score float64
	switch {
	case deviation <= -20:
		score = 2.0
	case deviation <= -10:
		score = 1.5
	case deviation <= -5:
		score = 1.0
	case deviation <= 0:
		score = 0.5
	case deviation <= 5:
		score = 0
	case deviation <= 10:
		score = -0.5
	case deviation <= 15:
		score = -1.0
	case deviation <= 20:
		score = -1.5
	default:
		score = -2.0
	}
	return factor(name, score, weight, fmt.Sprintf("%+.1f%%", deviation))
}

// scoreRSI scores the last RSI value.
// Weight: 0.25
func scoreRSI(row model.IndicatorRow) model.FactorScore {
	const name, weight = "RSI", 0.25
	if !row.RSI.Valid {
		return factor(name, 0, weight, "n/a")
	}
	rsi := row.RSI.V

	var score float64
	switch {
	case rsi <= 25:
		score = 2.0
	case rsi <= 30:
		score = 1.5
	case rsi <= 40:
		score = 1.0
	case rsi <= 45:
		score = 0.5
	case rsi <= 55:
		score = 0
	case rsi <= 60:
		score = -0.5
	case rsi <= 70:
		score = -1.0
	case rsi <= 80:
		score = -1.5
	default:
		score = -2.0
	}
	return factor(name, score, weight, fmt.Sprintf("RSI=%.0f", rsi))
}

// scoreMACD scores the MACD line relative to price.
// Weight: 0.15
func scoreMACD(row model.IndicatorRow) model.FactorScore {
	const name, weight = "MACD", 0.15
	if !row.MACD.Valid || row.Close == 0 {
		return factor(name, 0, weight, "n/a")
	}
	rel := row.MACD.V / row.Close * 100

	var score float64
	switch {
	case rel <= -3:
		score = 1.5
	case rel <= -1:
		score = 1.0
	case rel < 0:
		score = 0.5
	case rel < 1:
		score = -0.5
	case rel < 3:
		score = -1.0
	default:
		score = -1.5
	}
	return factor(name, score, weight, fmt.Sprintf("%+.2f%% of close", rel))
}

// scoreRangePosition scores where the close sits in the period range.
// Weight: 0.10
// Above 95% the score is capped at -1 unless the other factors already average below -1.
func scoreRangePosition(position, othersAvg float64) model.FactorScore {
	const name, weight = "Range position", 0.10
	pos := position * 100

	var score float64
	switch {
	case pos <= 10:
		score = 2.0
	case pos <= 20:
		score = 1.5
	case pos <= 30:
		score = 1.0
	case pos <= 40:
		score = 0.5
	case pos <= 60:
		score = 0
	case pos <= 70:
		score = -0.5
	case pos <= 80:
		score = -1.0
	case pos <= 95:
		score = -1.5
	default:
		if othersAvg < -1 {
			score = -2.0
		} else {
			score = -1.0
		}
	}
	return factor(name, score, weight, fmt.Sprintf("position=%.0f%%", pos))
}

// scoreTrend scores SMA alignment and proximity to the recent extremes.
// Weight: 0.15
// Bull alignment: close > short SMA > long SMA
// Bear alignment: close < short SMA < long SMA
func scoreTrend(frame *model.IndicatorFrame) model.FactorScore {
	const name, weight = "Trend", 0.15
	last := frame.Rows[frame.Len()-1]
	if !last.SMAShort.Valid || !last.SMALong.Valid {
		return factor(name, 0, weight, "n/a")
	}

	high, low := math.Inf(-1), math.Inf(1)
	for _, row := range frame.Tail(ExtremeLookback) {
		high = math.Max(high, row.High)
		low = math.Min(low, row.Low)
	}

	bullish := last.Close > last.SMAShort.V && last.SMAShort.V > last.SMALong.V
	bearish := last.Close < last.SMAShort.V && last.SMAShort.V < last.SMALong.V
	nearHigh := high > 0 && math.Abs(last.Close-high)/high < 0.01
	nearLow := low > 0 && math.Abs(last.Close-low)/low < 0.01

	switch {
	case bullish && nearHigh:
		return factor(name, -1.5, weight, "bull alignment at recent high")
	case bullish:
		return factor(name, -1.0, weight, "bull alignment")
	case bearish && nearLow:
		return factor(name, 1.0, weight, "bear alignment at recent low")
	case bearish:
		return factor(name, 0.5, weight, "bear alignment")
	}
	return factor(name, 0, weight, "range-bound")
}
