package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockScope/internal/calculator"
	"StockScope/internal/model"
)

func frameFor(t *testing.T, closes []float64, opts calculator.Options) *model.IndicatorFrame {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	frame, err := calculator.Compute(bars, opts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return frame
}

func smallOpts() calculator.Options {
	return calculator.Options{ShortWindow: 3, LongWindow: 5, RSIWindow: 3, RSIMethod: calculator.RSISimple, MACDFast: 12, MACDSlow: 26}
}

func TestBuild_IncreasingSeriesLabels(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	frame := frameFor(t, closes, smallOpts())

	samples, err := NewBuilder().Build(frame)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Rows 4..9 have every feature and a next bar.
	if len(samples) != 6 {
		t.Fatalf("expected 6 samples, got %d", len(samples))
	}
	for _, s := range samples {
		if s.Label != 1 {
			t.Errorf("sample at %s: expected label 1, got %d", s.Time.Format(time.DateOnly), s.Label)
		}
	}
	last := frame.Rows[len(frame.Rows)-1].Time
	for _, s := range samples {
		if s.Time.Equal(last) {
			t.Error("last bar must not produce a labelled sample")
		}
	}
	for i := 1; i < len(samples); i++ {
		if !samples[i].Time.After(samples[i-1].Time) {
			t.Fatal("samples are not chronological")
		}
	}
}

func TestBuild_NeverEmitsUndefinedFeatures(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50 + 10*math.Sin(float64(i)/3)
	}
	frame := frameFor(t, closes, calculator.Options{ShortWindow: 5, LongWindow: 20, RSIWindow: 14, MACDFast: 12, MACDSlow: 26})

	tests := []struct {
		name  string
		feats []model.Feature
		want  int
	}{
		{"all", nil, 40},
		{"macd only", []model.Feature{model.FeatureMACD}, 59},
		{"rsi and short sma", []model.Feature{model.FeatureRSI, model.FeatureSMAShort}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.feats...)
			samples, err := b.Build(frame)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(samples) > frame.Len() {
				t.Fatalf("more samples (%d) than rows (%d)", len(samples), frame.Len())
			}
			if len(samples) != tt.want {
				t.Errorf("expected %d samples, got %d", tt.want, len(samples))
			}
			for _, s := range samples {
				if len(s.Features) != len(b.Features) {
					t.Fatalf("feature vector length %d, want %d", len(s.Features), len(b.Features))
				}
				for _, v := range s.Features {
					if math.IsNaN(v) {
						t.Fatal("NaN feature emitted")
					}
				}
			}
		})
	}
}

func TestBuild_FeatureOrderFollowsBuilder(t *testing.T) {
	frame := frameFor(t, []float64{10, 12, 11, 13, 15, 14, 16, 18, 17, 19, 21}, smallOpts())
	b := NewBuilder(model.FeatureRSI, model.FeatureSMALong)
	samples, err := b.Build(frame)
	if err != nil {
		t.Fatal(err)
	}
	row := frame.Rows[4]
	if samples[0].Features[0] != row.RSI.V || samples[0].Features[1] != row.SMALong.V {
		t.Errorf("unexpected vector %v for row %+v", samples[0].Features, row)
	}
}

func TestBuild_TooFewSamples(t *testing.T) {
	frame := frameFor(t, []float64{1, 2, 3, 4, 5, 6, 7}, smallOpts())
	_, err := NewBuilder().Build(frame)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestBuild_UnknownFeature(t *testing.T) {
	frame := frameFor(t, []float64{1, 2, 3, 4, 5, 6, 7}, smallOpts())
	_, err := NewBuilder(model.Feature("volume")).Build(frame)
	if !errors.Is(err, ErrUnknownFeature) {
		t.Fatalf("expected ErrUnknownFeature, got %v", err)
	}
}

func TestLatestFeatures(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	frame := frameFor(t, closes, smallOpts())
	row, vec, err := NewBuilder().LatestFeatures(frame)
	if err != nil {
		t.Fatal(err)
	}
	if row.Close != 20 {
		t.Errorf("expected last close 20, got %v", row.Close)
	}
	if len(vec) != 4 || vec[0] != 19 || vec[1] != 18 {
		t.Errorf("unexpected latest vector %v", vec)
	}
}

func TestParseList(t *testing.T) {
	got, err := ParseList([]string{"RSI", "macd", "rsi"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != model.FeatureRSI || got[1] != model.FeatureMACD {
		t.Errorf("unexpected %v", got)
	}
	if all, _ := ParseList(nil); len(all) != 4 {
		t.Errorf("expected default feature set, got %v", all)
	}
	if _, err := ParseList([]string{"obv"}); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}
}
