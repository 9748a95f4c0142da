package features

import (
	"errors"
	"fmt"

	"StockScope/internal/model"
)

// MinSamples is the smallest dataset the trainer will accept.
const MinSamples = 5

var (
	// ErrEmptyDataset is returned when too few usable labelled rows remain.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrUnknownFeature is returned for a feature name the frame cannot supply.
	ErrUnknownFeature = errors.New("unknown feature")
)

// Builder turns an indicator frame into labelled samples.
type Builder struct {
	Features   []model.Feature
	MinSamples int
}

// NewBuilder returns a Builder over the given features, or all of them when none are given.
func NewBuilder(feats ...model.Feature) *Builder {
	if len(feats) == 0 {
		feats = model.DefaultFeatures
	}
	return &Builder{Features: feats, MinSamples: MinSamples}
}

// Build emits one sample per row whose features are all defined and whose next bar exists.
// Label is 1 when the next close is strictly higher.
func (b *Builder) Build(frame *model.IndicatorFrame) ([]model.LabeledSample, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, fmt.Errorf("%w: no indicator frame", ErrEmptyDataset)
	}

	samples := make([]model.LabeledSample, 0, frame.Len())
	for i := 0; i+1 < frame.Len(); i++ {
		row := frame.Rows[i]
		vec, ok := b.vector(row)
		if !ok {
			continue
		}
		label := 0
		if frame.Rows[i+1].Close > row.Close {
			label = 1
		}
		samples = append(samples, model.LabeledSample{Time: row.Time, Features: vec, Label: label})
	}

	need := b.MinSamples
	if need <= 0 {
		need = MinSamples
	}
	if len(samples) < need {
		return nil, fmt.Errorf("%w: %d usable samples from %d rows, need %d", ErrEmptyDataset, len(samples), frame.Len(), need)
	}
	return samples, nil
}

// LatestFeatures returns the feature vector of the last row, which has no label yet.
func (b *Builder) LatestFeatures(frame *model.IndicatorFrame) (model.IndicatorRow, []float64, error) {
	if err := b.check(); err != nil {
		return model.IndicatorRow{}, nil, err
	}
	if frame == nil || frame.Len() == 0 {
		return model.IndicatorRow{}, nil, fmt.Errorf("%w: no rows", ErrEmptyDataset)
	}
	last := frame.Rows[frame.Len()-1]
	vec, ok := b.vector(last)
	if !ok {
		return last, nil, fmt.Errorf("%w: last bar has undefined features", ErrEmptyDataset)
	}
	return last, vec, nil
}

func (b *Builder) check() error {
	if len(b.Features) == 0 {
		return fmt.Errorf("%w: empty feature set", ErrUnknownFeature)
	}
	var probe model.IndicatorRow
	for _, f := range b.Features {
		if _, ok := probe.Feature(f); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFeature, f)
		}
	}
	return nil
}

func (b *Builder) vector(row model.IndicatorRow) ([]float64, bool) {
	vec := make([]float64, len(b.Features))
	for j, f := range b.Features {
		v, _ := row.Feature(f)
		if !v.Valid {
			return nil, false
		}
		vec[j] = v.V
	}
	return vec, true
}

// ParseList converts configured names into features, keeping their order.
func ParseList(names []string) ([]model.Feature, error) {
	if len(names) == 0 {
		return model.DefaultFeatures, nil
	}
	out := make([]model.Feature, 0, len(names))
	seen := make(map[model.Feature]bool, len(names))
	for _, n := range names {
		f, err := model.ParseFeature(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownFeature, err)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}
