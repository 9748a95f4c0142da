package strategy

import (
	"math"
	"testing"
	"time"

	"StockScope/internal/model"
)

func frameWithLast(last model.IndicatorRow) *model.IndicatorFrame {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.IndicatorRow, 0, 40)
	for i := 0; i < 39; i++ {
		rows = append(rows, model.IndicatorRow{PriceBar: model.PriceBar{
			Time: start.AddDate(0, 0, i), High: 110, Low: 95, Close: 100,
		}})
	}
	last.Time = start.AddDate(0, 0, 39)
	rows = append(rows, last)
	return &model.IndicatorFrame{ShortWindow: 20, LongWindow: 50, RSIWindow: 14, Rows: rows}
}

func TestEvaluate_Oversold(t *testing.T) {
	frame := frameWithLast(model.IndicatorRow{
		PriceBar: model.PriceBar{High: 84, Low: 80, Close: 80},
		SMAShort: model.Some(90),
		SMALong:  model.Some(100),
		RSI:      model.Some(20),
		MACD:     model.Some(-3),
	})
	out := Evaluate(frame, 0.05)
	if out == nil {
		t.Fatal("expected non-nil outlook")
	}
	if len(out.Factors) != 5 {
		t.Fatalf("expected 5 factors, got %d", len(out.Factors))
	}
	if math.Abs(out.TotalScore-1.775) > 1e-9 {
		t.Errorf("expected total 1.775, got %.4f", out.TotalScore)
	}
	if out.Stance.Label != "Deeply oversold" {
		t.Errorf("unexpected stance %q", out.Stance.Label)
	}
	if out.Factors[4].Commentary != "bear alignment at recent low" {
		t.Errorf("unexpected trend commentary %q", out.Factors[4].Commentary)
	}
	if out.Warning != "" {
		t.Errorf("unexpected warning %q", out.Warning)
	}
}

func TestEvaluate_Overbought(t *testing.T) {
	frame := frameWithLast(model.IndicatorRow{
		PriceBar: model.PriceBar{High: 130, Low: 126, Close: 130},
		SMAShort: model.Some(120),
		SMALong:  model.Some(100),
		RSI:      model.Some(90),
		MACD:     model.Some(5),
	})
	out := Evaluate(frame, 0.99)
	if math.Abs(out.TotalScore-(-1.85)) > 1e-9 {
		t.Errorf("expected total -1.85, got %.4f", out.TotalScore)
	}
	if out.Stance != DefaultStance {
		t.Errorf("expected default stance, got %+v", out.Stance)
	}
	if rp := out.Factors[3]; rp.RawScore != -2 {
		t.Errorf("range factor should reach -2 when the others agree, got %v", rp.RawScore)
	}
	if out.Warning == "" {
		t.Error("expected RSI warning")
	}
}

func TestEvaluate_UndefinedIndicators(t *testing.T) {
	frame := frameWithLast(model.IndicatorRow{PriceBar: model.PriceBar{High: 101, Low: 99, Close: 100}})
	out := Evaluate(frame, 0.5)
	if out.TotalScore != 0 {
		t.Errorf("expected zero score, got %v", out.TotalScore)
	}
	if out.Stance.Label != "Neutral" {
		t.Errorf("unexpected stance %q", out.Stance.Label)
	}
	for _, f := range []model.FactorScore{out.Factors[0], out.Factors[1], out.Factors[2], out.Factors[4]} {
		if f.Commentary != "n/a" {
			t.Errorf("%s: expected n/a, got %q", f.Name, f.Commentary)
		}
	}
}

func TestScoreRangePosition_CapsNearHigh(t *testing.T) {
	if got := scoreRangePosition(0.99, 0).RawScore; got != -1 {
		t.Errorf("expected cap at -1, got %v", got)
	}
	if got := scoreRangePosition(0.99, -1.2).RawScore; got != -2 {
		t.Errorf("expected -2, got %v", got)
	}
}

func TestMapStance(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{2.0, "Deeply oversold"},
		{0.8, "Leaning oversold"},
		{0, "Neutral"},
		{-0.81, "Overbought"},
		{-1.5, "Overbought"},
		{-1.51, "Deeply overbought"},
	}
	for _, tt := range tests {
		if got := mapStance(tt.score).Label; got != tt.want {
			t.Errorf("mapStance(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestEvaluate_EmptyFrame(t *testing.T) {
	if Evaluate(&model.IndicatorFrame{}, 0.5) != nil {
		t.Error("expected nil outlook for empty frame")
	}
}
