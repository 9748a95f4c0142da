package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"StockScope/internal/calculator"
	"StockScope/internal/classifier"
	"StockScope/internal/features"
	"StockScope/internal/model"
	"StockScope/internal/strategy"
)

// Config bundles the settings of every stage.
type Config struct {
	Indicators calculator.Options
	Features   []model.Feature
	Classifier classifier.Config
	// RangeLookback is the number of bars summarised by the period high/low; 0 = whole series.
	RangeLookback int
}

// DefaultConfig returns the default windows, all four features and the default forest.
func DefaultConfig() Config {
	return Config{
		Indicators: calculator.DefaultOptions(),
		Features:   model.DefaultFeatures,
		Classifier: classifier.DefaultConfig(),
	}
}

// PeriodSummary is the high/low of the summarised window and where the last close sits in it.
type PeriodSummary struct {
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Position float64 `json:"position"`
}

// Result is the outcome of one run.
type Result struct {
	Symbol     string                `json:"symbol"`
	Features   []model.Feature       `json:"features"`
	Frame      *model.IndicatorFrame `json:"frame"`
	Samples    int                   `json:"samples"`
	Period     PeriodSummary         `json:"period"`
	Evaluation *model.Evaluation     `json:"evaluation"`
	Forecast   *model.Forecast       `json:"forecast,omitempty"`
	Outlook    *model.Outlook        `json:"outlook,omitempty"`
}

// Runner executes the indicator, feature and training stages in order.
type Runner struct {
	logger zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger.With().Str("component", "pipeline").Logger()}
}

// Run computes indicators over bars, builds labelled samples, trains and scores the forest,
// then forecasts the bar after the last one. Stage errors are returned wrapped, so
// errors.Is matches calculator.ErrInsufficientData and features.ErrEmptyDataset.
func (r *Runner) Run(symbol string, bars []model.PriceBar, cfg Config) (*Result, error) {
	frame, err := calculator.Compute(bars, cfg.Indicators)
	if err != nil {
		return nil, fmt.Errorf("indicators for %s: %w", symbol, err)
	}

	builder := features.NewBuilder(cfg.Features...)
	samples, err := builder.Build(frame)
	if err != nil {
		return nil, fmt.Errorf("features for %s: %w", symbol, err)
	}

	trainer := classifier.NewTrainer(cfg.Classifier, r.logger)
	forest, eval, err := trainer.Train(samples)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", symbol, err)
	}

	res := &Result{
		Symbol:     symbol,
		Features:   builder.Features,
		Frame:      frame,
		Samples:    len(samples),
		Evaluation: eval,
	}
	if high, low, err := calculator.PeriodRange(bars, cfg.RangeLookback); err == nil {
		pos, _ := calculator.RangePosition(bars[len(bars)-1].Close, high, low)
		res.Period = PeriodSummary{High: high, Low: low, Position: pos}
		res.Outlook = strategy.Evaluate(frame, pos)
	}

	// The last bar has no label, so its call is the next-bar forecast.
	if row, vec, err := builder.LatestFeatures(frame); err == nil {
		p, err := forest.PredictProba(vec)
		if err != nil {
			return nil, fmt.Errorf("forecast %s: %w", symbol, err)
		}
		dir := model.DirectionDown
		if p > 0.5 {
			dir = model.DirectionUp
		}
		res.Forecast = &model.Forecast{AsOf: row.Time, LastClose: row.Close, Direction: dir, Probability: p}
	} else {
		r.logger.Warn().Err(err).Str("symbol", symbol).Msg("no forecast for last bar")
	}

	r.logger.Info().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Int("samples", res.Samples).
		Float64("accuracy", eval.Accuracy).
		Bool("degenerate", eval.Degenerate).
		Msg("pipeline run complete")
	return res, nil
}
