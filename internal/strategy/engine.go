package strategy

import "StockScope/internal/model"

// Stances defines the score bands, highest first.
var Stances = []model.Stance{
	{Label: "Deeply oversold", MinScore: 1.5},
	{Label: "Oversold", MinScore: 1.2},
	{Label: "Leaning oversold", MinScore: 0.8},
	{Label: "Neutral", MinScore: 0.0},
	{Label: "Leaning overbought", MinScore: -0.8},
	{Label: "Overbought", MinScore: -1.5},
}

// DefaultStance is the band for scores below the last threshold.
var DefaultStance = model.Stance{Label: "Deeply overbought", MinScore: -2}

// ExtremeLookback is the number of bars used for the recent high/low check.
const ExtremeLookback = 30

func mapStance(totalScore float64) model.Stance {
	for _, s := range Stances {
		if totalScore >= s.MinScore {
			return s
		}
	}
	return DefaultStance
}

// Evaluate scores the last row of frame. position is where the last close sits in the
// period range (0..1). Undefined indicators contribute a zero score.
func Evaluate(frame *model.IndicatorFrame, position float64) *model.Outlook {
	if frame.Len() == 0 {
		return nil
	}
	last := frame.Rows[frame.Len()-1]

	f1 := scoreLongDeviation(last)
	f2 := scoreRSI(last)
	f3 := scoreMACD(last)
	f5 := scoreTrend(frame)

	// The range factor needs the average of the others.
	othersAvg := (f1.RawScore + f2.RawScore + f3.RawScore + f5.RawScore) / 4.0
	f4 := scoreRangePosition(position, othersAvg)

	factors := []model.FactorScore{f1, f2, f3, f4, f5}
	var total float64
	for _, f := range factors {
		total += f.Weighted
	}

	out := &model.Outlook{
		Factors:    factors,
		TotalScore: total,
		Stance:     mapStance(total),
	}
	if last.RSI.Valid && last.RSI.V > 85 {
		out.Warning = "RSI above 85: momentum is extended"
	} else if last.RSI.Valid && last.RSI.V < 15 {
		out.Warning = "RSI below 15: selling is extended"
	}
	return out
}
