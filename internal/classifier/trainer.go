package classifier

import (
	"fmt"

	"github.com/rs/zerolog"

	"StockScope/internal/model"
)

// Config holds the trainer settings.
type Config struct {
	Trees           int
	TestFraction    float64
	Seed            int64
	MaxDepth        int
	MinSamplesSplit int
}

// DefaultConfig returns 10 trees, a 20% hold-out and seed 42.
func DefaultConfig() Config {
	return Config{
		Trees:           10,
		TestFraction:    0.2,
		Seed:            42,
		MinSamplesSplit: 2,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Trees < 1 {
		return fmt.Errorf("%w: ensemble size must be >= 1, got %d", ErrInvalidConfig, c.Trees)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("%w: test fraction %.3f not in (0,1)", ErrInvalidConfig, c.TestFraction)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must be >= 0, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	return nil
}

// Trainer splits samples, fits a forest on the train part and scores it on the rest.
type Trainer struct {
	cfg    Config
	logger zerolog.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(cfg Config, logger zerolog.Logger) *Trainer {
	return &Trainer{cfg: cfg, logger: logger.With().Str("component", "classifier").Logger()}
}

// Train fits the forest and evaluates it on the held-out partition.
// A single-class test partition is reported as a warning on the evaluation, never as an error.
func (t *Trainer) Train(samples []model.LabeledSample) (*Forest, *model.Evaluation, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	train, test, err := Split(samples, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	forest, err := FitForest(train, ForestConfig{
		Trees: t.cfg.Trees,
		Tree:  TreeConfig{MaxDepth: t.cfg.MaxDepth, MinSamplesSplit: t.cfg.MinSamplesSplit},
		Seed:  t.cfg.Seed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fit forest: %w", err)
	}

	acc, err := forest.Accuracy(test)
	if err != nil {
		return nil, nil, fmt.Errorf("score forest: %w", err)
	}

	eval := &model.Evaluation{
		Accuracy:  acc,
		TrainSize: len(train),
		TestSize:  len(test),
		Trees:     t.cfg.Trees,
		Seed:      t.cfg.Seed,
	}
	for _, s := range test {
		if s.Label == 1 {
			eval.TestUp++
		} else {
			eval.TestDown++
		}
	}
	if eval.TestUp == 0 || eval.TestDown == 0 {
		eval.Degenerate = true
		msg := fmt.Sprintf("test partition holds a single class (%d up, %d down); accuracy %.2f is not meaningful",
			eval.TestUp, eval.TestDown, acc)
		eval.Warnings = append(eval.Warnings, model.Warning{Kind: model.WarningDegenerateClass, Message: msg})
		t.logger.Warn().Int("test_up", eval.TestUp).Int("test_down", eval.TestDown).Msg("degenerate test partition")
	}

	t.logger.Debug().
		Int("train", eval.TrainSize).
		Int("test", eval.TestSize).
		Int("trees", eval.Trees).
		Float64("accuracy", acc).
		Msg("forest evaluated")
	return forest, eval, nil
}
