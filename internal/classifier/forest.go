package classifier

import (
	"errors"
	"fmt"
	"math/rand"

	"StockScope/internal/model"
)

var (
	// ErrNoSamples is returned when there is nothing to fit or score.
	ErrNoSamples = errors.New("no samples")
	// ErrInvalidConfig is returned for an unusable trainer configuration.
	ErrInvalidConfig = errors.New("invalid classifier config")
	// ErrFeatureMismatch is returned when vectors disagree on length.
	ErrFeatureMismatch = errors.New("feature vector length mismatch")
)

// ForestConfig configures a random forest.
type ForestConfig struct {
	Trees int
	Tree  TreeConfig
	Seed  int64
}

// Forest is a bagged ensemble of CART trees.
type Forest struct {
	Trees     []*Tree
	nFeatures int
}

// FitForest trains cfg.Trees trees, each on a bootstrap sample drawn from its own seeded source.
// The per-tree seeds come from cfg.Seed, so the same samples and seed give the same forest.
func FitForest(samples []model.LabeledSample, cfg ForestConfig) (*Forest, error) {
	if cfg.Trees < 1 {
		return nil, fmt.Errorf("%w: trees must be >= 1, got %d", ErrInvalidConfig, cfg.Trees)
	}
	ds, err := toDataset(samples)
	if err != nil {
		return nil, err
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	n := len(samples)
	f := &Forest{Trees: make([]*Tree, cfg.Trees), nFeatures: len(ds.x[0])}
	for t := range f.Trees {
		rng := rand.New(rand.NewSource(master.Int63()))
		boot := make([]int, n)
		for i := range boot {
			boot[i] = rng.Intn(n)
		}
		f.Trees[t] = growTree(ds, boot, cfg.Tree, rng)
	}
	return f, nil
}

func toDataset(samples []model.LabeledSample) (dataset, error) {
	if len(samples) == 0 {
		return dataset{}, ErrNoSamples
	}
	d := len(samples[0].Features)
	if d == 0 {
		return dataset{}, fmt.Errorf("%w: empty feature vector", ErrFeatureMismatch)
	}
	ds := dataset{x: make([][]float64, len(samples)), y: make([]int, len(samples))}
	for i, s := range samples {
		if len(s.Features) != d {
			return dataset{}, fmt.Errorf("%w: sample %d has %d features, want %d", ErrFeatureMismatch, i, len(s.Features), d)
		}
		ds.x[i] = s.Features
		ds.y[i] = s.Label
	}
	return ds, nil
}

// PredictProba returns the fraction of trees voting 1 for x.
func (f *Forest) PredictProba(x []float64) (float64, error) {
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(x), f.nFeatures)
	}
	votes := 0
	for _, t := range f.Trees {
		votes += t.Predict(x)
	}
	return float64(votes) / float64(len(f.Trees)), nil
}

// Predict returns the majority vote for x; a tie resolves to 0.
func (f *Forest) Predict(x []float64) (int, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Accuracy is the fraction of samples whose label the forest predicts.
func (f *Forest) Accuracy(samples []model.LabeledSample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	correct := 0
	for _, s := range samples {
		pred, err := f.Predict(s.Features)
		if err != nil {
			return 0, err
		}
		if pred == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples)), nil
}
